package search

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qfactor/internal/compose"
)

func TestSearchLimit(t *testing.T) {
	tests := []struct {
		n, want int64
	}{
		{2, 2},   // sqrt 1.41 -> 2
		{4, 2},   // exact square
		{21, 5},  // sqrt 4.58 -> 5
		{25, 5},  // exact square
		{26, 6},  // sqrt 5.09 -> 6
		{143, 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SearchLimit(big.NewInt(tt.n)).Int64(), "limit(%d)", tt.n)
	}
}

func TestPartition_SingleWorker(t *testing.T) {
	// N=21 depth=2: limit 5, 9 states per chunk, one chunk total.
	blocks, err := Partition(big.NewInt(21), 2, 1)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, int64(0), blocks[0].Start.Int64())
	assert.Equal(t, 1, blocks[0].ActiveChunks)
}

func TestPartition_TrailingWorkersMayBeEmpty(t *testing.T) {
	// 2 chunks over 5 workers: only 2 non-empty blocks.
	blocks, err := Partition(big.NewInt(323), 2, 5)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	for _, b := range blocks {
		assert.Equal(t, 1, b.ActiveChunks)
	}
}

// TestPartition_ExactCoverage is the partition property: blocks tile the
// chunk space exactly, with no gap and no overlap, and the candidate union
// covers [0, ceil(sqrt(N))).
func TestPartition_ExactCoverage(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 300; i++ {
		n := big.NewInt(2 + rng.Int63n(1_000_000))
		depth := 1 + rng.Intn(5)
		workers := 1 + rng.Intn(7)

		blocks, err := Partition(n, depth, workers)
		require.NoError(t, err)
		require.NotEmpty(t, blocks, "n=%v depth=%d workers=%d", n, depth, workers)
		assert.LessOrEqual(t, len(blocks), workers)

		next := big.NewInt(0)
		for _, b := range blocks {
			assert.Equal(t, next, b.Start, "gap or overlap at chunk %s (n=%v)", next, n)
			assert.Positive(t, b.ActiveChunks)
			next = b.End()
		}
		assert.Equal(t, TotalChunks(n, depth), next, "blocks must end at the chunk-space bound")

		// Candidate union covers the search interval.
		covered := new(big.Int).Mul(next, compose.ChunkStates(depth))
		assert.GreaterOrEqual(t, covered.Cmp(SearchLimit(n)), 0,
			"candidates covered %s < limit %s", covered, SearchLimit(n))
	}
}

func TestPartition_BlockSizesAreBalanced(t *testing.T) {
	// Ceiling division: block sizes differ by at most the remainder block.
	blocks, err := Partition(big.NewInt(999_983), 1, 4) // prime, limit 1000
	require.NoError(t, err)

	per := blocks[0].ActiveChunks
	for _, b := range blocks[:len(blocks)-1] {
		assert.Equal(t, per, b.ActiveChunks)
	}
	assert.LessOrEqual(t, blocks[len(blocks)-1].ActiveChunks, per)
}

func TestPartition_InvalidInputs(t *testing.T) {
	_, err := Partition(big.NewInt(1), 2, 1)
	require.Error(t, err)

	var se *SchedulerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeBadModulus, se.Code)

	_, err = Partition(big.NewInt(21), 2, 0)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeBadWorkers, se.Code)
}

func TestPartition_SpaceTooLarge(t *testing.T) {
	// A 4096-bit modulus at depth 1 has ~2^2046 chunks; one worker's share
	// cannot be represented and the partition must say so up front.
	n := new(big.Int).Lsh(big.NewInt(1), 4096)
	n.Add(n, big.NewInt(1))

	_, err := Partition(n, 1, 2)
	require.Error(t, err)
	assert.True(t, IsSpaceTooLarge(err))
}
