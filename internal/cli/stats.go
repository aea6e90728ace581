package cli

import (
	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Show scan statistics",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(func(app *App) error {
				stats, err := app.Profile.Stats(cmd.Context())
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read stats", err)
				}
				if opts.json() {
					return writeJSON(cmd.OutOrStdout(), stats)
				}
				RenderStats(cmd.OutOrStdout(), *stats)
				return nil
			})
		},
	}
}
