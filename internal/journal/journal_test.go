package journal

import (
	"context"
	"database/sql"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qfactor/internal/compose"
	"github.com/roach88/qfactor/internal/search"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, j.Close()) })
	return j
}

func TestOpen_Pragmas(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	assert.NoError(t, j.verifyPragma(ctx, "journal_mode", "wal"))
	assert.NoError(t, j.verifyPragma(ctx, "foreign_keys", "1"))
	assert.NoError(t, j.verifyPragma(ctx, "busy_timeout", "5000"))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	j1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j1.BeginRun(context.Background(), NewRunID(), big.NewInt(323), map[string]any{"depth": 2}))
	require.NoError(t, j1.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	runs, err := j2.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1, "reopen must not drop rows")
}

func TestRunLifecycle_Found(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	id := NewRunID()

	require.NoError(t, j.BeginRun(ctx, id, big.NewInt(323), map[string]any{"depth": 2, "workers": 1}))

	out := &search.Outcome{Factor: big.NewInt(17), Cofactor: big.NewInt(19)}
	require.NoError(t, j.FinishRun(ctx, id, out, nil))

	rec, err := j.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "323", rec.N)
	assert.Equal(t, OutcomeFound, rec.Outcome)
	assert.Equal(t, "17", rec.Factor)
	assert.Equal(t, "19", rec.Cofactor)
	assert.Equal(t, `{"depth":2,"workers":1}`, rec.Config)
	assert.False(t, rec.StartedAt.IsZero())
	assert.False(t, rec.FinishedAt.IsZero())
}

func TestRunLifecycle_NotFound(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	id := NewRunID()

	require.NoError(t, j.BeginRun(ctx, id, big.NewInt(323), map[string]any{}))
	require.NoError(t, j.FinishRun(ctx, id, &search.Outcome{NotFound: true}, nil))

	rec, err := j.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, rec.Outcome)
	assert.Empty(t, rec.Factor)
}

func TestRunLifecycle_Error(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	id := NewRunID()

	require.NoError(t, j.BeginRun(ctx, id, big.NewInt(323), map[string]any{}))
	require.NoError(t, j.FinishRun(ctx, id, nil, context.Canceled))

	rec, err := j.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, rec.Outcome)
	assert.Equal(t, "context canceled", rec.Error)
}

func TestFinishRun_UnknownID(t *testing.T) {
	j := openTestJournal(t)
	err := j.FinishRun(context.Background(), "no-such-run", &search.Outcome{NotFound: true}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown run")
}

func TestGetRun_Missing(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.GetRun(context.Background(), "absent")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBlockResults_RoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	id := NewRunID()
	require.NoError(t, j.BeginRun(ctx, id, big.NewInt(323), map[string]any{}))

	reports := []search.WorkerReport{
		{
			Worker:  0,
			Block:   compose.SearchBlock{Start: big.NewInt(0), ActiveChunks: 3},
			State:   search.WorkerSucceeded,
			Batches: 1,
		},
		{
			Worker:  1,
			Block:   compose.SearchBlock{Start: big.NewInt(3), ActiveChunks: 3},
			State:   search.WorkerFailed,
			Reason:  "cancelled",
			Batches: 1,
		},
	}
	require.NoError(t, j.WriteBlockResults(ctx, id, reports))
	// Idempotent rewrite, e.g. after a retried flush.
	require.NoError(t, j.WriteBlockResults(ctx, id, reports))

	got, err := j.BlockResults(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "0", got[0].BlockStart)
	assert.Equal(t, 3, got[0].Chunks)
	assert.Equal(t, string(search.WorkerSucceeded), got[0].State)
	assert.Empty(t, got[0].Reason)

	assert.Equal(t, "3", got[1].BlockStart)
	assert.Equal(t, "cancelled", got[1].Reason)
}

func TestBlockResults_ForeignKey(t *testing.T) {
	j := openTestJournal(t)
	err := j.WriteBlockResults(context.Background(), "no-such-run", []search.WorkerReport{
		{Worker: 0, Block: compose.SearchBlock{Start: big.NewInt(0), ActiveChunks: 1}, State: search.WorkerFailed},
	})
	assert.Error(t, err, "block results require an existing run row")
}

func TestListRuns_NewestFirst(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	first, second := NewRunID(), NewRunID()
	require.NoError(t, j.BeginRun(ctx, first, big.NewInt(21), map[string]any{}))
	require.NoError(t, j.BeginRun(ctx, second, big.NewInt(323), map[string]any{}))

	runs, err := j.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, first, runs[1].ID)

	limited, err := j.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second, limited[0].ID)
}

func TestNewRunID_TimeOrdered(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "UUIDv7 ids sort by creation time")
}
