package compose

import (
	"fmt"
	"math/big"
)

// EngineRadix is the branching factor of one engine cell. A chunk of depth d
// spans radix^d local states.
const EngineRadix = 3

// SearchBlock is a contiguous run of chunk indices assigned to one worker.
//
// The block covers global candidates
// [Start*chunkStates, (Start+ActiveChunks)*chunkStates). Start is arbitrary
// precision: for large moduli the chunk space itself exceeds 64 bits.
type SearchBlock struct {
	// Start is the global index of the block's first chunk.
	Start *big.Int

	// ActiveChunks is the number of consecutive chunks in the block.
	ActiveChunks int
}

// ChunkStates returns radix^depth, the local value-space size of one chunk.
func ChunkStates(depth int) *big.Int {
	return new(big.Int).Exp(big.NewInt(EngineRadix), big.NewInt(int64(depth)), nil)
}

// GlobalOffset returns (Start + local) * chunkStates, the first global
// candidate covered by the block's local-th chunk.
func (b SearchBlock) GlobalOffset(local int, chunkStates *big.Int) *big.Int {
	idx := new(big.Int).Add(b.Start, big.NewInt(int64(local)))
	return idx.Mul(idx, chunkStates)
}

// End returns Start + ActiveChunks, the exclusive upper chunk index.
func (b SearchBlock) End() *big.Int {
	return new(big.Int).Add(b.Start, big.NewInt(int64(b.ActiveChunks)))
}

// String renders the block's chunk range for logs.
func (b SearchBlock) String() string {
	return fmt.Sprintf("chunks [%s, %s)", b.Start, b.End())
}
