package search

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/roach88/qfactor/internal/compose"
	"github.com/roach88/qfactor/internal/emu"
	"github.com/roach88/qfactor/internal/parse"
	"github.com/roach88/qfactor/internal/qbin"
)

// WorkerState is one stage of the worker lifecycle:
// Idle -> Dispatched -> Running -> {Succeeded | Failed | TimedOut}.
type WorkerState string

const (
	WorkerIdle       WorkerState = "IDLE"
	WorkerDispatched WorkerState = "DISPATCHED"
	WorkerRunning    WorkerState = "RUNNING"
	WorkerSucceeded  WorkerState = "SUCCEEDED"
	WorkerFailed     WorkerState = "FAILED"
	WorkerTimedOut   WorkerState = "TIMED_OUT"
)

// Terminal reports whether the state is an end state.
func (s WorkerState) Terminal() bool {
	switch s {
	case WorkerSucceeded, WorkerFailed, WorkerTimedOut:
		return true
	}
	return false
}

// WorkerReport is one worker's terminal outcome, consumed by the scheduler
// and surfaced for journaling and diagnostics.
type WorkerReport struct {
	Worker  int
	Block   compose.SearchBlock
	State   WorkerState
	Reason  string // set for FAILED and TIMED_OUT
	Batches int    // engine executions performed
}

// runWorker drives one block: compose, execute, parse, verify. Blocks wider
// than the engine's chunk ceiling are processed as successive batches, each
// its own engine execution (one in-flight process per worker at any time).
//
// onFactor is called for every verified candidate; it returns true when this
// worker's pair was accepted as the run result.
func (s *Scheduler) runWorker(
	ctx context.Context,
	n *big.Int,
	worker int,
	block compose.SearchBlock,
	onFactor func(factor, cofactor *big.Int) bool,
) WorkerReport {
	report := WorkerReport{Worker: worker, Block: block, State: WorkerDispatched}
	log := slog.With("worker", worker, "block", block.String())

	maxChunks := s.builder.MaxChunks
	for batchStart := 0; batchStart < block.ActiveChunks; batchStart += maxChunks {
		if ctx.Err() != nil {
			report.State = WorkerFailed
			report.Reason = "cancelled"
			return report
		}

		batch := compose.SearchBlock{
			Start:        new(big.Int).Add(block.Start, big.NewInt(int64(batchStart))),
			ActiveChunks: min(maxChunks, block.ActiveChunks-batchStart),
		}

		program, err := s.builder.Build(n, s.cfg.Depth, batch, s.cfg.Iterations)
		if err != nil {
			report.State = WorkerFailed
			report.Reason = fmt.Sprintf("compose: %v", err)
			return report
		}

		report.State = WorkerRunning
		report.Batches++
		log.Debug("batch dispatched",
			"batch", batch.String(),
			"instructions", program.Len())

		outcome := s.runBatch(ctx, n, batch, program, onFactor)
		switch {
		case outcome.won:
			report.State = WorkerSucceeded
			return report
		case outcome.err == nil:
			continue // batch exhausted cleanly, next one
		case emu.IsTimeout(outcome.err):
			report.State = WorkerTimedOut
			report.Reason = outcome.err.Error()
			return report
		case ctx.Err() != nil:
			report.State = WorkerFailed
			report.Reason = "cancelled"
			return report
		default:
			report.State = WorkerFailed
			report.Reason = outcome.err.Error()
			return report
		}
	}

	report.State = WorkerFailed
	report.Reason = "block exhausted without a verified factor"
	return report
}

type batchOutcome struct {
	won bool
	err error
}

// runBatch executes one composed batch and verifies every extracted
// candidate. Late verified candidates after the pool result is taken are
// discarded by onFactor returning false.
func (s *Scheduler) runBatch(
	ctx context.Context,
	n *big.Int,
	batch compose.SearchBlock,
	program *qbin.Program,
	onFactor func(factor, cofactor *big.Int) bool,
) batchOutcome {
	exec, err := s.runner.Run(ctx, program)
	if err != nil {
		return batchOutcome{err: err}
	}

	parser := parse.New(batch, s.cfg.Depth)
	won := false
	var exitErr error

	// Drain the whole stream even after a win so the executor can reap the
	// process and remove its artifact.
	for ev := range exec.Events() {
		switch ev.Type {
		case emu.EventLine:
			report, ok := parser.ParseLine(ev.Line)
			if !ok || won {
				continue
			}
			if !IsFactor(n, report.Candidate) {
				continue
			}
			cofactor := new(big.Int).Quo(n, report.Candidate)
			if onFactor(report.Candidate, cofactor) {
				won = true
			}
		case emu.EventExited:
			exitErr = ev.Err
		}
	}

	if won {
		return batchOutcome{won: true}
	}
	if exitErr != nil {
		return batchOutcome{err: exitErr}
	}
	if !parser.Recognized() {
		return batchOutcome{err: parse.ErrEmpty}
	}
	return batchOutcome{}
}
