package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fountainhq/fountain/internal/cueload"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Surveys []string `json:"surveys,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <definitions-dir>",
		Short: "Validate survey definitions",
		Long: `Validate CUE survey definitions without running the engine.

Performs schema checking and semantic validation (unique question ids,
trigger parameters, option lists) and reports every problem found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, loadErrors := cueload.Load(dir, cueload.LoadModeCollectAll)

	if result == nil && len(loadErrors) > 0 {
		var loadErr *cueload.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitCommandError, loadErr.Message)
		}
		_ = formatter.Error(cueload.ErrCodeLoadFailed, loadErrors[0].Error(), nil)
		return NewExitError(ExitCommandError, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	out := ValidationResult{Valid: len(loadErrors) == 0}
	for _, sv := range result.Surveys {
		out.Surveys = append(out.Surveys, sv.ID)
	}
	for _, err := range loadErrors {
		out.Errors = append(out.Errors, err.Error())
	}

	if !out.Valid {
		if opts.Format == "json" {
			_ = formatter.Success(out)
		} else {
			for _, msg := range out.Errors {
				fmt.Fprintln(formatter.Writer, msg)
			}
			fmt.Fprintf(formatter.Writer, "%d problem(s) found\n", len(out.Errors))
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation problem(s)", len(out.Errors)))
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	return formatter.Success(fmt.Sprintf("%d survey(s) valid", len(out.Surveys)))
}
