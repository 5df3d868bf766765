package journal

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/roach88/qfactor/internal/search"
)

// Run outcomes as stored in the runs.outcome column.
const (
	OutcomeFound    = "FOUND"
	OutcomeNotFound = "NOT_FOUND"
	OutcomeError    = "ERROR"
)

// BeginRun inserts the run row before dispatch. snapshot is the effective
// configuration, stored as canonical JSON.
func (j *Journal) BeginRun(ctx context.Context, id string, n *big.Int, snapshot map[string]any) error {
	cfgJSON, err := MarshalCanonical(snapshot)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	_, err = j.db.ExecContext(ctx, `
		INSERT INTO runs (id, n, config, started_at)
		VALUES (?, ?, ?, ?)
	`, id, n.String(), string(cfgJSON), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// FinishRun records the terminal state of a run: the verified pair, a
// not-found exhaustion, or the run error.
func (j *Journal) FinishRun(ctx context.Context, id string, out *search.Outcome, runErr error) error {
	var (
		outcome          string
		factor, cofactor any
		errText          any
	)
	switch {
	case runErr != nil:
		outcome = OutcomeError
		errText = runErr.Error()
	case out != nil && !out.NotFound:
		outcome = OutcomeFound
		factor = out.Factor.String()
		cofactor = out.Cofactor.String()
	default:
		outcome = OutcomeNotFound
	}

	res, err := j.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, outcome = ?, factor = ?, cofactor = ?, error = ?
		WHERE id = ?
	`, time.Now().UnixMilli(), outcome, factor, cofactor, errText, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: unknown run %q", id)
	}
	return nil
}

// WriteBlockResults records the terminal report of every dispatched worker.
func (j *Journal) WriteBlockResults(ctx context.Context, runID string, reports []search.WorkerReport) error {
	for _, r := range reports {
		_, err := j.db.ExecContext(ctx, `
			INSERT INTO block_results (run_id, worker, block_start, chunks, state, reason, batches)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING
		`, runID, r.Worker, r.Block.Start.String(), r.Block.ActiveChunks, string(r.State), r.Reason, r.Batches)
		if err != nil {
			return fmt.Errorf("write block result: %w", err)
		}
	}
	return nil
}
