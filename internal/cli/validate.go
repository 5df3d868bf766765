package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/qfactor/internal/config"
)

// ValidationResult holds config validation results.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Errors []config.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Check a config file against the schema",
		Long: `Validate a qfactor.yaml file without running anything. Reports every
schema violation found, with field paths.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	_, errs := config.Load(path)
	if len(errs) == 0 {
		if err := formatter.SuccessText(ValidationResult{Valid: true}, "config valid"); err != nil {
			return err
		}
		return nil
	}

	result := ValidationResult{}
	for _, err := range errs {
		var ve config.ValidationError
		if errors.As(err, &ve) {
			if ve.Code == config.ErrCodeRead {
				return WrapExitError(ExitCommandError, "cannot read config", err)
			}
			result.Errors = append(result.Errors, ve)
			continue
		}
		result.Errors = append(result.Errors, config.ValidationError{
			Code:    config.ErrCodeSchema,
			Message: err.Error(),
		})
	}

	lines := make([]string, 0, len(result.Errors)+1)
	lines = append(lines, "config invalid:")
	for _, ve := range result.Errors {
		lines = append(lines, "  "+ve.Error())
	}
	if err := formatter.SuccessText(result, lines...); err != nil {
		return err
	}
	return NewExitError(ExitFailure, "config validation failed")
}
