package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fountainhq/fountain/internal/harness"
)

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Replay a scenario against an in-memory engine",
		Long: `Replay a YAML scenario file against a fresh in-memory engine and print
the resulting transcript. The engine runs with a manual clock and scripted
host signals, so transcripts are deterministic.

Exits non-zero when a step expectation in the scenario is violated.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(rootOpts, args[0], cmd)
		},
	}
}

func runSimulate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scn, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error("BAD_SCENARIO", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	formatter.VerboseLog("Running scenario %q (%d steps)", scn.Name, len(scn.Steps))

	transcript, err := harness.Run(scn)
	if err != nil {
		_ = formatter.Error("RUN_FAILED", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	if opts.Format == "json" {
		if err := formatter.Success(transcript); err != nil {
			return err
		}
	} else {
		if err := printTranscript(formatter, transcript); err != nil {
			return err
		}
	}

	if transcript.Failed() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) violated", len(transcript.Failures)))
	}
	return nil
}

func printTranscript(f *OutputFormatter, t *harness.Transcript) error {
	fmt.Fprintf(f.Writer, "scenario: %s\n", t.Scenario)
	for _, e := range t.Entries {
		line := fmt.Sprintf("  %-28s -> %s step=%d visible=%v responses=%d", e.Action, e.State, e.Step, e.Visible, e.Responses)
		if e.Error != "" {
			line += " error=" + e.Error
		}
		fmt.Fprintln(f.Writer, line)
	}

	submitted, err := json.Marshal(t.Submitted)
	if err != nil {
		return err
	}
	fmt.Fprintf(f.Writer, "submitted: %s\n", submitted)

	for _, failure := range t.Failures {
		fmt.Fprintf(f.Writer, "FAIL %s\n", failure)
	}
	return nil
}
