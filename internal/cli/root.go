// Package cli implements the qfactor command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"math/big"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the qfactor CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qfactor",
		Short: "qfactor - distributed integer factoring on the qutrit engine",
		Long: `qfactor partitions the divisor search space of a composite number,
synthesizes one binary program per block for the external qutrit engine,
and runs the blocks concurrently until a worker reports a verified factor.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewComposeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// configureLogging installs the default slog handler, levelled by --verbose.
func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// parseModulus parses a positional N argument as a non-negative integer,
// decimal or 0x-prefixed hex.
func parseModulus(arg string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(arg, 0)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid modulus %q: expected a non-negative integer", arg)
	}
	return n, nil
}
