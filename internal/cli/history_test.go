package cli

import (
	"context"
	"encoding/json"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qfactor/internal/compose"
	"github.com/roach88/qfactor/internal/journal"
	"github.com/roach88/qfactor/internal/search"
)

// seedJournal writes one finished run and returns the db path and run id.
func seedJournal(t *testing.T) (string, string) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "runs.db")

	jnl, err := journal.Open(db)
	require.NoError(t, err)
	defer jnl.Close()

	ctx := context.Background()
	id := journal.NewRunID()
	require.NoError(t, jnl.BeginRun(ctx, id, big.NewInt(323), map[string]any{"depth": 2}))
	require.NoError(t, jnl.WriteBlockResults(ctx, id, []search.WorkerReport{{
		Worker:  0,
		Block:   compose.SearchBlock{Start: big.NewInt(0), ActiveChunks: 2},
		State:   search.WorkerSucceeded,
		Batches: 1,
	}}))
	out := &search.Outcome{Factor: big.NewInt(17), Cofactor: big.NewInt(19)}
	require.NoError(t, jnl.FinishRun(ctx, id, out, nil))
	return db, id
}

func TestHistory_ListsRuns(t *testing.T) {
	db, id := seedJournal(t)

	out, err := executeCommand(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "17 * 19")
}

func TestHistory_JSON(t *testing.T) {
	db, id := seedJournal(t)

	out, err := executeCommand(t, "history", "--db", db, "--format", "json")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	raw, marshalErr := json.Marshal(resp.Data)
	require.NoError(t, marshalErr)
	var result HistoryResult
	require.NoError(t, json.Unmarshal(raw, &result))

	require.Len(t, result.Runs, 1)
	assert.Equal(t, id, result.Runs[0].ID)
	assert.Equal(t, journal.OutcomeFound, result.Runs[0].Outcome)
}

func TestHistory_BlockResults(t *testing.T) {
	db, id := seedJournal(t)

	out, err := executeCommand(t, "history", "--db", db, "--run", id)
	require.NoError(t, err)
	assert.Contains(t, out, "worker 0")
	assert.Contains(t, out, string(search.WorkerSucceeded))
}

func TestHistory_EmptyJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	jnl, err := journal.Open(db)
	require.NoError(t, err)
	require.NoError(t, jnl.Close())

	out, err := executeCommand(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "no journaled runs")
}

func TestHistory_RequiresDB(t *testing.T) {
	_, err := executeCommand(t, "history")
	assert.Error(t, err)
}
