package search

import (
	"math"
	"math/big"

	"github.com/roach88/qfactor/internal/compose"
)

var two = big.NewInt(2)

// SearchLimit returns ceil(sqrt(n)), the exclusive upper bound of the
// candidate interval. Any composite n has a non-trivial divisor below it.
func SearchLimit(n *big.Int) *big.Int {
	s := new(big.Int).Sqrt(n)
	if new(big.Int).Mul(s, s).Cmp(n) < 0 {
		s.Add(s, one)
	}
	return s
}

// TotalChunks returns ceil(limit / chunkStates), the size of the chunk space
// for a search at the given depth.
func TotalChunks(n *big.Int, depth int) *big.Int {
	return ceilDiv(SearchLimit(n), compose.ChunkStates(depth))
}

// Partition splits the chunk space for n at the given depth into at most
// workerCount contiguous blocks by ceiling division.
//
// Invariant: the returned blocks tile [0, TotalChunks) exactly - no gap, no
// overlap - so the candidate union covers [0, ceil(sqrt(n))) rounded up to a
// chunk boundary. Workers whose share would be empty get no block; the
// result is never empty for n >= 2.
func Partition(n *big.Int, depth, workerCount int) ([]compose.SearchBlock, error) {
	if n == nil || n.Cmp(two) < 0 {
		return nil, newSchedulerError(ErrCodeBadModulus, "modulus must be an integer >= 2")
	}
	if workerCount < 1 {
		return nil, newSchedulerError(ErrCodeBadWorkers, "worker count %d: must be >= 1", workerCount)
	}

	total := TotalChunks(n, depth)
	perBlock := ceilDiv(total, big.NewInt(int64(workerCount)))
	if !perBlock.IsInt64() || perBlock.Int64() > math.MaxInt {
		return nil, newSchedulerError(ErrCodeSpaceTooLarge,
			"%s chunks per worker: raise worker count or chunk depth", perBlock)
	}
	per := perBlock.Int64()

	var blocks []compose.SearchBlock
	start := big.NewInt(0)
	for i := 0; i < workerCount; i++ {
		remaining := new(big.Int).Sub(total, start)
		if remaining.Sign() <= 0 {
			break
		}
		count := per
		if remaining.IsInt64() && remaining.Int64() < count {
			count = remaining.Int64()
		}
		blocks = append(blocks, compose.SearchBlock{
			Start:        new(big.Int).Set(start),
			ActiveChunks: int(count),
		})
		start = new(big.Int).Add(start, big.NewInt(count))
	}
	return blocks, nil
}

// ceilDiv returns ceil(a/b) for positive b.
func ceilDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, one)
	}
	return q
}
