// Package parse extracts candidate divisors from the engine's line-oriented
// output stream.
//
// The stream is unstructured text. Exactly two line shapes are recognized;
// everything else is diagnostic noise and is ignored without error:
//
//	[MEAS] Measuring chunk <idx> => <value>
//	[FACTOR] ... 0x<hex>
//
// A measurement is local to one chunk of the worker's block; the parser
// recombines it into a global candidate. Direct factor reports carry the
// candidate outright. The parser never deduplicates: every extracted
// candidate is forwarded so verification stays the single source of truth.
package parse

import (
	"errors"
	"math/big"
	"regexp"

	"github.com/roach88/qfactor/internal/compose"
)

var (
	measPattern   = regexp.MustCompile(`\[MEAS\].*?chunk\s+(\d+)\s*=>\s*(\d+)`)
	factorPattern = regexp.MustCompile(`\[FACTOR\].*?0[xX]([0-9a-fA-F]+)`)
)

// ErrEmpty indicates a completed stream contained no recognizable line at
// all. Distinct from "measurements seen, none verified", which is a normal
// not-found outcome.
var ErrEmpty = errors.New("no recognizable engine output")

// Report is one extracted candidate.
type Report struct {
	// Candidate is the recombined global candidate divisor.
	Candidate *big.Int

	// Chunk is the local chunk index for measurement reports, -1 for
	// direct factor reports.
	Chunk int

	// Direct marks a [FACTOR] hex report.
	Direct bool
}

// Parser recombines per-chunk measurements for one worker's block.
type Parser struct {
	block      compose.SearchBlock
	states     *big.Int
	recognized bool
}

// New creates a parser for a block searched at the given chunk depth.
func New(block compose.SearchBlock, depth int) *Parser {
	return &Parser{block: block, states: compose.ChunkStates(depth)}
}

// ParseLine scans one output line. ok is false for noise, malformed
// near-matches and measurements addressing chunks outside the block.
//
// For a measurement of value v in local chunk c the candidate is
// v + (blockStart+c) * chunkStates.
func (p *Parser) ParseLine(line string) (r Report, ok bool) {
	if m := measPattern.FindStringSubmatch(line); m != nil {
		chunk, okIdx := new(big.Int).SetString(m[1], 10)
		value, okVal := new(big.Int).SetString(m[2], 10)
		if !okIdx || !okVal {
			return Report{}, false
		}
		if !chunk.IsInt64() || chunk.Int64() >= int64(p.block.ActiveChunks) {
			// Some other block's chunk leaked into this stream; not ours
			// to recombine.
			return Report{}, false
		}
		local := int(chunk.Int64())
		p.recognized = true

		candidate := p.block.GlobalOffset(local, p.states)
		candidate.Add(candidate, value)
		return Report{Candidate: candidate, Chunk: local}, true
	}

	if m := factorPattern.FindStringSubmatch(line); m != nil {
		candidate, okHex := new(big.Int).SetString(m[1], 16)
		if !okHex {
			return Report{}, false
		}
		p.recognized = true
		return Report{Candidate: candidate, Chunk: -1, Direct: true}, true
	}

	return Report{}, false
}

// Recognized reports whether any recognizable line has been seen. A stream
// that completes with Recognized false should be surfaced as ErrEmpty.
func (p *Parser) Recognized() bool { return p.recognized }
