package emu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/roach88/qfactor/internal/qbin"
)

const (
	// DefaultGrace is the SIGTERM-to-SIGKILL window for forced termination.
	DefaultGrace = 2 * time.Second

	// maxLineBytes bounds one engine stdout line. Engine diagnostics are
	// short; anything beyond this is noise we refuse to buffer.
	maxLineBytes = 1 << 20

	eventBuffer = 64
)

// Runner launches engine executions. The zero value is not usable;
// EnginePath is required.
type Runner struct {
	// EnginePath is the engine executable.
	EnginePath string

	// Timeout bounds one run. Zero means no per-run deadline (the caller's
	// context still applies).
	Timeout time.Duration

	// Grace is the window between SIGTERM and SIGKILL when a run is
	// terminated. Zero uses DefaultGrace.
	Grace time.Duration
}

// Exec is one in-flight engine execution.
type Exec struct {
	events   <-chan Event
	artifact string
}

// Events returns the run's event stream: zero or more Line events followed
// by exactly one Exited event, after which the channel closes. The consumer
// must drain until close.
func (e *Exec) Events() <-chan Event { return e.events }

// Artifact returns the temp program path, for logging. The file is gone once
// the Exited event has been delivered.
func (e *Exec) Artifact() string { return e.artifact }

// Run serializes the program to a scoped temp artifact and launches the
// engine against it.
//
// An error return means the engine never started (missing binary,
// unserializable program, artifact write failure) and no events will flow.
// Failures after start are reported on the terminal Exited event instead, so
// that lines already produced are never lost.
func (r *Runner) Run(ctx context.Context, program *qbin.Program) (*Exec, error) {
	if _, err := os.Stat(r.EnginePath); err != nil {
		return nil, &NotFoundError{Path: r.EnginePath, Err: err}
	}

	buf, err := program.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serialize program: %w", err)
	}

	artifact, err := writeArtifact(buf)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})

	cmd := exec.CommandContext(ctx, r.EnginePath, artifact)
	cmd.Cancel = func() error {
		terminateProcess(cmd, r.grace(), done)
		return nil
	}
	configureProcess(cmd)
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = os.Remove(artifact)
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = os.Remove(artifact)
		if errors.Is(err, exec.ErrNotFound) || os.IsPermission(err) {
			return nil, &NotFoundError{Path: r.EnginePath, Err: err}
		}
		return nil, fmt.Errorf("start engine: %w", err)
	}

	slog.Debug("engine started",
		"path", r.EnginePath,
		"artifact", artifact,
		"bytes", len(buf))

	events := make(chan Event, eventBuffer)
	var timedOut atomic.Bool

	// Watchdog: force-terminates the process group on timeout. Context
	// cancellation is handled by cmd.Cancel above.
	if r.Timeout > 0 {
		timer := time.AfterFunc(r.Timeout, func() {
			timedOut.Store(true)
			terminateProcess(cmd, r.grace(), done)
		})
		go func() {
			<-done
			timer.Stop()
		}()
	}

	go func() {
		defer close(events)

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
		for scanner.Scan() {
			events <- Event{Type: EventLine, Line: scanner.Text()}
		}
		if scanErr := scanner.Err(); scanErr != nil {
			// A poisoned stream (oversized line) would otherwise leave the
			// engine blocked on a full pipe.
			slog.Warn("stdout stream aborted", "err", scanErr)
			terminateProcess(cmd, r.grace(), nil)
		}

		waitErr := cmd.Wait()
		close(done)
		if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
			slog.Warn("artifact not removed", "artifact", artifact, "err", err)
		}

		events <- r.exitEvent(ctx, waitErr, timedOut.Load())
	}()

	return &Exec{events: events, artifact: artifact}, nil
}

// exitEvent classifies how the run ended.
func (r *Runner) exitEvent(ctx context.Context, waitErr error, timedOut bool) Event {
	code := 0
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		code = exitErr.ExitCode()
	} else if waitErr != nil {
		code = -1
	}

	ev := Event{Type: EventExited, Code: code}
	switch {
	case timedOut:
		ev.Err = &TimeoutError{After: r.Timeout}
	case ctx.Err() != nil:
		ev.Err = ctx.Err()
	case waitErr != nil:
		ev.Err = &ExitError{Code: code}
	}
	return ev
}

func (r *Runner) grace() time.Duration {
	if r.Grace > 0 {
		return r.Grace
	}
	return DefaultGrace
}

// writeArtifact persists the program bytes to a uniquely named temp file.
func writeArtifact(buf []byte) (string, error) {
	f, err := os.CreateTemp("", "qfactor-*.qbin")
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if _, err := f.Write(buf); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}
	return f.Name(), nil
}
