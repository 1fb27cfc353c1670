package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fountainhq/fountain/internal/gate"
	"github.com/fountainhq/fountain/internal/store"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase persisted eligibility state",
		Long: `Erase every persisted feedback record from a durable store: submitted
surveys, last-shown timestamps, and any session leftovers. Surveys become
eligible again as if never shown. Used for testing and account-level
opt-out.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(rootOpts, dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite store (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReset(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := store.OpenSQLite(dbPath)
	if err != nil {
		_ = formatter.Error("OPEN_FAILED", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	defer s.Close()

	keys, err := s.Keys(store.Durable, store.KeyPrefix)
	if err != nil {
		_ = formatter.Error("RESET_FAILED", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	if err := gate.New(s, nil).Reset(); err != nil {
		_ = formatter.Error("RESET_FAILED", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{"removed": len(keys)})
	}
	return formatter.Success(fmt.Sprintf("removed %d record(s)", len(keys)))
}
