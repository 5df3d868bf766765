package cli

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/qfactor/internal/compose"
	"github.com/roach88/qfactor/internal/qbin"
)

// ComposeOptions holds flags for the compose command.
type ComposeOptions struct {
	*RootOptions
	Depth      int
	BlockStart string
	Chunks     int
	Iterations int
	MaxChunks  int
	Output     string
	Dump       bool
}

// ComposeResult is the success payload of the compose command.
type ComposeResult struct {
	N            string   `json:"n"`
	Depth        int      `json:"depth"`
	BlockStart   string   `json:"block_start"`
	Chunks       int      `json:"chunks"`
	Iterations   int      `json:"iterations"`
	Instructions int      `json:"instructions"`
	Bytes        int      `json:"bytes"`
	Output       string   `json:"output,omitempty"`
	Listing      []string `json:"listing,omitempty"`
}

// NewComposeCommand creates the compose command.
func NewComposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComposeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compose <N>",
		Short: "Synthesize one block program without executing it",
		Long: `Synthesize the engine program for a single search block and write the
binary artifact, for engine debugging and golden-file inspection.

Example:
  qfactor compose --depth 2 --chunks 2 -o block.qbin 143
  qfactor compose --depth 2 --chunks 2 --dump 143`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Depth, "depth", 2, "qutrits per chunk (3^depth states)")
	cmd.Flags().StringVar(&opts.BlockStart, "block", "0", "first candidate chunk of the block")
	cmd.Flags().IntVar(&opts.Chunks, "chunks", 1, "active chunks in the block")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", 1, "oracle refinement rounds")
	cmd.Flags().IntVar(&opts.MaxChunks, "max-chunks", 0, "engine chunk ceiling")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "artifact path (default: no file)")
	cmd.Flags().BoolVar(&opts.Dump, "dump", false, "list decoded instructions")

	return cmd
}

func runCompose(opts *ComposeOptions, arg string, cmd *cobra.Command) error {
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
	start, ok := new(big.Int).SetString(opts.BlockStart, 0)
	if !ok || start.Sign() < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid block start %q", opts.BlockStart))
	}

	builder := compose.NewBuilder()
	if opts.MaxChunks > 0 {
		builder.MaxChunks = opts.MaxChunks
	}
	block := compose.SearchBlock{Start: start, ActiveChunks: opts.Chunks}

	program, err := builder.Build(n, opts.Depth, block, opts.Iterations)
	if err != nil {
		return WrapExitError(ExitFailure, "compose failed", err)
	}
	artifact, err := program.Bytes()
	if err != nil {
		return WrapExitError(ExitFailure, "compose failed", err)
	}

	result := ComposeResult{
		N:            n.String(),
		Depth:        opts.Depth,
		BlockStart:   start.String(),
		Chunks:       opts.Chunks,
		Iterations:   opts.Iterations,
		Instructions: len(program.Instructions()),
		Bytes:        len(artifact),
		Output:       opts.Output,
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, artifact, 0o644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write artifact", err)
		}
	}
	if opts.Dump {
		result.Listing = listing(artifact)
	}

	lines := []string{fmt.Sprintf("%d instructions, %d bytes", result.Instructions, result.Bytes)}
	if opts.Output != "" {
		lines = append(lines, "wrote "+opts.Output)
	}
	lines = append(lines, result.Listing...)
	return formatter.SuccessText(result, lines...)
}

// listing decodes the serialized artifact back into one mnemonic line per
// instruction, so the dump inspects exactly what the engine will read.
func listing(artifact []byte) []string {
	lines := make([]string, 0, len(artifact)/qbin.WordSize)
	for off := 0; off+qbin.WordSize <= len(artifact); off += qbin.WordSize {
		w := qbin.Word(binary.LittleEndian.Uint64(artifact[off:]))
		lines = append(lines, fmt.Sprintf("%04d: %s", off/qbin.WordSize, qbin.Decode(w).String()))
	}
	return lines
}
