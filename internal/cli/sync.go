package cli

import (
	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the local cache from the remote catalog",
		Long: `Download the full remote catalog and apply it to the local cache in one
transaction. Running it again with an unchanged catalog is a no-op.

Exits with status 1 when the remote is unreachable.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(func(app *App) error {
				report := app.Syncer.SyncAll(cmd.Context())

				if opts.json() {
					if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
						return err
					}
				} else {
					RenderSyncReport(cmd.OutOrStdout(), report)
				}

				if report.Failed {
					return NewExitError(ExitFailure, "sync failed")
				}
				return nil
			})
		},
	}
}
