package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/qfactor/internal/config"
	"github.com/roach88/qfactor/internal/journal"
	"github.com/roach88/qfactor/internal/search"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	Engine     string
	Depth      int
	Workers    int
	Iterations int
	Timeout    time.Duration
	Grace      time.Duration
	MaxChunks  int
	Database   string
}

// RunResult is the success payload of the run command.
type RunResult struct {
	N        string `json:"n"`
	Found    bool   `json:"found"`
	Factor   string `json:"factor,omitempty"`
	Cofactor string `json:"cofactor,omitempty"`
	RunID    string `json:"run_id,omitempty"`
	Workers  int    `json:"workers_dispatched"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <N>",
		Short: "Search for a nontrivial factor of N",
		Long: `Partition the divisor search space of N, dispatch one engine program per
block across the worker pool, and stop at the first verified factor.

Example:
  qfactor run --engine /opt/qutrit-engine 323
  qfactor run --config qfactor.yaml --db runs.db 341550071728321`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to qfactor.yaml")
	cmd.Flags().StringVar(&opts.Engine, "engine", "", "path to the qutrit engine executable")
	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "qutrits per chunk (3^depth states)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent engine processes")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", 0, "oracle refinement rounds per block")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-execution engine timeout")
	cmd.Flags().DurationVar(&opts.Grace, "grace", 0, "SIGTERM-to-SIGKILL grace period")
	cmd.Flags().IntVar(&opts.MaxChunks, "max-chunks", 0, "engine chunk ceiling per execution")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (optional)")

	return cmd
}

func runSearch(opts *RunOptions, arg string, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	n, err := parseModulus(arg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid argument", err)
	}

	cfg, err := effectiveConfig(opts, cmd)
	if err != nil {
		return err
	}
	if cfg.Engine == "" {
		return NewExitError(ExitCommandError, "engine path required: set --engine or the config engine field")
	}

	// Graceful shutdown on Ctrl-C: cancel the pool, workers terminate
	// their engine processes.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping search", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var (
		jnl   *journal.Journal
		runID string
	)
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	if dbPath != "" {
		jnl, err = journal.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := jnl.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
		runID = journal.NewRunID()
		if err := jnl.BeginRun(ctx, runID, n, configSnapshot(cfg)); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
	}

	scheduler := search.New(cfg.SearchConfig())
	out, runErr := scheduler.Run(ctx, n)

	if jnl != nil {
		// Journaling is best-effort once the search has an answer.
		if out != nil {
			if err := jnl.WriteBlockResults(context.Background(), runID, out.Workers); err != nil {
				slog.Error("journal block results", "error", err)
			}
		}
		if err := jnl.FinishRun(context.Background(), runID, out, runErr); err != nil {
			slog.Error("journal finish run", "error", err)
		}
	}

	if runErr != nil {
		var se *search.SchedulerError
		if errors.As(runErr, &se) {
			return WrapExitError(ExitCommandError, "search rejected", runErr)
		}
		return WrapExitError(ExitFailure, "search failed", runErr)
	}

	result := RunResult{
		N:       n.String(),
		Found:   !out.NotFound,
		RunID:   runID,
		Workers: len(out.Workers),
	}
	if result.Found {
		result.Factor = out.Factor.String()
		result.Cofactor = out.Cofactor.String()
		return formatter.SuccessText(result,
			fmt.Sprintf("%s = %s * %s", result.N, result.Factor, result.Cofactor))
	}

	if err := formatter.SuccessText(result, fmt.Sprintf("no factor of %s found", result.N)); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "search exhausted without a verified factor")
}

// effectiveConfig resolves the file config (or defaults) with flag overrides.
func effectiveConfig(opts *RunOptions, cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if opts.ConfigPath != "" {
		loaded, errs := config.Load(opts.ConfigPath)
		if len(errs) > 0 {
			return nil, WrapExitError(ExitCommandError, "invalid config", errors.Join(errs...))
		}
		cfg = loaded
	} else {
		def := config.Default()
		cfg = &def
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine = opts.Engine
	}
	if flags.Changed("depth") {
		cfg.Depth = opts.Depth
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.Workers
	}
	if flags.Changed("iterations") {
		cfg.Iterations = opts.Iterations
	}
	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration(opts.Timeout)
	}
	if flags.Changed("grace") {
		cfg.Grace = config.Duration(opts.Grace)
	}
	if flags.Changed("max-chunks") {
		cfg.MaxChunks = opts.MaxChunks
	}

	// Overrides can push values outside the schema; re-check.
	if cfg.Engine != "" {
		if errs := cfg.Validate(); len(errs) > 0 {
			return nil, WrapExitError(ExitCommandError, "invalid configuration", errors.Join(errs...))
		}
	}
	return cfg, nil
}

// configSnapshot is the journaled view of the effective config.
func configSnapshot(cfg *config.Config) map[string]any {
	return map[string]any{
		"engine":     cfg.Engine,
		"depth":      cfg.Depth,
		"workers":    cfg.Workers,
		"iterations": cfg.Iterations,
		"timeout":    cfg.Timeout.Std().String(),
		"grace":      cfg.Grace.Std().String(),
		"max_chunks": cfg.MaxChunks,
	}
}
