package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qfactor/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	RunID    string
}

// HistoryResult is the success payload of the history command.
type HistoryResult struct {
	Runs   []journal.RunRecord   `json:"runs,omitempty"`
	Blocks []journal.BlockRecord `json:"blocks,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled runs",
		Long: `List past runs from a journal database, newest first. With --run,
show that run's per-worker block results instead.

Example:
  qfactor history --db runs.db
  qfactor history --db runs.db --run 01890a5d-ac96-774b-bcce-b302099a8057`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 = all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show block results for one run")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	jnl, err := journal.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer jnl.Close()

	ctx := cmd.Context()

	if opts.RunID != "" {
		blocks, err := jnl.BlockResults(ctx, opts.RunID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read block results", err)
		}
		lines := make([]string, 0, len(blocks))
		for _, b := range blocks {
			line := fmt.Sprintf("worker %d  chunks [%s, +%d)  %s  batches=%d",
				b.Worker, b.BlockStart, b.Chunks, b.State, b.Batches)
			if b.Reason != "" {
				line += "  " + b.Reason
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			lines = append(lines, "no block results for run "+opts.RunID)
		}
		return formatter.SuccessText(HistoryResult{Blocks: blocks}, lines...)
	}

	runs, err := jnl.ListRuns(ctx, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	lines := make([]string, 0, len(runs))
	for _, r := range runs {
		line := fmt.Sprintf("%s  %s  n=%s  %s", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.N, displayOutcome(r))
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = append(lines, "no journaled runs")
	}
	return formatter.SuccessText(HistoryResult{Runs: runs}, lines...)
}

func displayOutcome(r journal.RunRecord) string {
	switch r.Outcome {
	case journal.OutcomeFound:
		return fmt.Sprintf("%s * %s", r.Factor, r.Cofactor)
	case journal.OutcomeNotFound:
		return "not found"
	case journal.OutcomeError:
		return "error: " + r.Error
	default:
		return "running"
	}
}
