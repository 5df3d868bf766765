package compose

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/roach88/qfactor/internal/qbin"
)

// DefaultMaxChunks is the engine's addressable chunk ceiling. The engine
// itself enforces this limit only by crashing; it is surfaced here as a
// configurable constant validated before dispatch.
const DefaultMaxChunks = 1024

// Builder synthesizes block programs. The zero value is not usable; construct
// with NewBuilder or fill both fields.
type Builder struct {
	Layout    RegisterLayout
	MaxChunks int
}

// NewBuilder returns a Builder with the production layout and chunk ceiling.
func NewBuilder() Builder {
	return Builder{Layout: DefaultLayout(), MaxChunks: DefaultMaxChunks}
}

// Build synthesizes the program for one worker's block.
//
// n is the modulus under attack, depth the per-chunk qutrit count,
// iterations the refinement budget. The budget trades runtime against
// success probability and has no guaranteed sufficient value; zero is valid
// and yields a bare superpose-and-measure program.
func (b Builder) Build(n *big.Int, depth int, block SearchBlock, iterations int) (*qbin.Program, error) {
	if n == nil || n.Cmp(big.NewInt(2)) < 0 {
		return nil, newBuildError(ErrCodeBadModulus, "modulus must be an integer >= 2")
	}
	if depth < 1 {
		return nil, newBuildError(ErrCodeBadDepth, "chunk depth %d: must be >= 1", depth)
	}
	if iterations < 0 {
		return nil, newBuildError(ErrCodeBadBudget, "iteration budget %d: must be >= 0", iterations)
	}
	if block.Start == nil || block.Start.Sign() < 0 {
		return nil, newBuildError(ErrCodeBadBlock, "block start must be a non-negative chunk index")
	}
	if block.ActiveChunks < 1 {
		return nil, newBuildError(ErrCodeBadBlock, "block has no active chunks")
	}
	maxChunks := b.MaxChunks
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	if block.ActiveChunks > maxChunks {
		return nil, newBuildError(ErrCodeSizeExceeded,
			"block requests %d chunks, engine ceiling is %d", block.ActiveChunks, maxChunks)
	}

	modulusLimbs := limbs64(n, 1)
	if err := b.Layout.validate(len(modulusLimbs)); err != nil {
		return nil, err
	}

	// The largest offset the block will store must fit the reserved limbs.
	states := ChunkStates(depth)
	lastOffset := block.GlobalOffset(block.ActiveChunks-1, states)
	if (lastOffset.BitLen()+63)/64 > b.Layout.OffsetLimbs {
		return nil, newBuildError(ErrCodeOffsetOverflow,
			"chunk offset needs %d bits, layout reserves %d",
			lastOffset.BitLen(), b.Layout.OffsetLimbs*64)
	}

	p := &qbin.Program{}
	emit := func(in qbin.Instruction) error { return p.Append(in) }

	if err := emit(qbin.Instruction{Opcode: qbin.OpLoadWeights}); err != nil {
		return nil, err
	}

	for c := 0; c < block.ActiveChunks; c++ {
		if err := emit(qbin.Instruction{Opcode: qbin.OpInit, Target: uint32(c), Op1: uint32(depth)}); err != nil {
			return nil, err
		}
	}

	if err := storeLimbs(p, b.Layout.ModulusBase, modulusLimbs); err != nil {
		return nil, err
	}

	// Superposition pass, then the refinement rounds. The offset store is
	// re-emitted before every oracle invocation: the engine executes the
	// stream linearly, so each chunk sees its own offset at that moment.
	if err := b.oraclePass(p, block, states, qbin.OracleSuperpose, 0); err != nil {
		return nil, err
	}
	for k := 0; k < iterations; k++ {
		if err := b.oraclePass(p, block, states, qbin.OracleDivisor, qbin.OracleDiffuse); err != nil {
			return nil, err
		}
	}

	for c := 0; c < block.ActiveChunks; c++ {
		if err := emit(qbin.Instruction{Opcode: qbin.OpMeasure, Target: uint32(c)}); err != nil {
			return nil, err
		}
	}

	if err := p.Seal(); err != nil {
		return nil, err
	}
	return p, nil
}

// oraclePass stores each chunk's global offset and invokes first (and, when
// nonzero, second) on the chunk.
func (b Builder) oraclePass(p *qbin.Program, block SearchBlock, states *big.Int, first, second uint32) error {
	for c := 0; c < block.ActiveChunks; c++ {
		offset := block.GlobalOffset(c, states)
		if err := storeLimbs(p, b.Layout.OffsetBase, limbs64(offset, b.Layout.OffsetLimbs)); err != nil {
			return err
		}
		if err := p.Append(qbin.Instruction{Opcode: qbin.OpOracle, Target: uint32(c), Op1: first}); err != nil {
			return err
		}
		if second != 0 {
			if err := p.Append(qbin.Instruction{Opcode: qbin.OpOracle, Target: uint32(c), Op1: second}); err != nil {
				return err
			}
		}
	}
	return nil
}

// storeLimbs writes a limb sequence into consecutive registers from base,
// one STORE_LO/STORE_HI pair per 64-bit limb.
func storeLimbs(p *qbin.Program, base uint32, limbs []uint64) error {
	for i, limb := range limbs {
		reg := base + uint32(i)
		lo := uint32(limb)
		hi := uint32(limb >> 32)
		err := p.Append(qbin.Instruction{
			Opcode: qbin.OpStoreLo, Target: reg,
			Op1: lo & 0xFFFF, Op2: lo >> 16,
		})
		if err != nil {
			return fmt.Errorf("store limb %d low half: %w", i, err)
		}
		err = p.Append(qbin.Instruction{
			Opcode: qbin.OpStoreHi, Target: reg,
			Op1: hi & 0xFFFF, Op2: hi >> 16,
		})
		if err != nil {
			return fmt.Errorf("store limb %d high half: %w", i, err)
		}
	}
	return nil
}

// limbs64 splits v into little-endian 64-bit limbs, zero-padded to at least
// minLimbs entries.
func limbs64(v *big.Int, minLimbs int) []uint64 {
	n := (v.BitLen() + 63) / 64
	if n < minLimbs {
		n = minLimbs
	}
	if n == 0 {
		n = 1
	}
	buf := make([]byte, n*8)
	v.FillBytes(buf)
	limbs := make([]uint64, n)
	for i := range limbs {
		end := len(buf) - i*8
		limbs[i] = binary.BigEndian.Uint64(buf[end-8 : end])
	}
	return limbs
}
