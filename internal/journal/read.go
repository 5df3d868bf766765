package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID         string    `json:"id"`
	N          string    `json:"n"`
	Config     string    `json:"config"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Outcome    string    `json:"outcome,omitempty"`
	Factor     string    `json:"factor,omitempty"`
	Cofactor   string    `json:"cofactor,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// BlockRecord is one row of the block_results table.
type BlockRecord struct {
	RunID      string `json:"run_id"`
	Worker     int    `json:"worker"`
	BlockStart string `json:"block_start"`
	Chunks     int    `json:"chunks"`
	State      string `json:"state"`
	Reason     string `json:"reason,omitempty"`
	Batches    int    `json:"batches"`
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT disables the cap
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, n, config, started_at, finished_at, outcome, factor, cofactor, error
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return records, nil
}

// GetRun returns one run by id, or sql.ErrNoRows.
func (j *Journal) GetRun(ctx context.Context, id string) (RunRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, n, config, started_at, finished_at, outcome, factor, cofactor, error
		FROM runs WHERE id = ?
	`, id)
	rec, err := scanRun(row)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %q: %w", id, err)
	}
	return rec, nil
}

// BlockResults returns the worker reports of one run, in worker order.
func (j *Journal) BlockResults(ctx context.Context, runID string) ([]BlockRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, worker, block_start, chunks, state, reason, batches
		FROM block_results
		WHERE run_id = ?
		ORDER BY worker
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("block results: %w", err)
	}
	defer rows.Close()

	var records []BlockRecord
	for rows.Next() {
		var rec BlockRecord
		var reason sql.NullString
		if err := rows.Scan(&rec.RunID, &rec.Worker, &rec.BlockStart, &rec.Chunks, &rec.State, &reason, &rec.Batches); err != nil {
			return nil, fmt.Errorf("block results: %w", err)
		}
		rec.Reason = reason.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("block results: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		rec        RunRecord
		startedAt  int64
		finishedAt sql.NullInt64
		outcome    sql.NullString
		factor     sql.NullString
		cofactor   sql.NullString
		errText    sql.NullString
	)
	err := row.Scan(&rec.ID, &rec.N, &rec.Config, &startedAt, &finishedAt, &outcome, &factor, &cofactor, &errText)
	if err != nil {
		return RunRecord{}, err
	}
	rec.StartedAt = time.UnixMilli(startedAt).UTC()
	if finishedAt.Valid {
		rec.FinishedAt = time.UnixMilli(finishedAt.Int64).UTC()
	}
	rec.Outcome = outcome.String
	rec.Factor = factor.String
	rec.Cofactor = cofactor.String
	rec.Error = errText.String
	return rec, nil
}
