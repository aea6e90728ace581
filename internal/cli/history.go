package cli

import (
	"github.com/spf13/cobra"

	"github.com/macrolens/scanner/internal/usecase"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Show recent scans",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(func(app *App) error {
				history, err := app.Profile.History(cmd.Context(), limit)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read history", err)
				}
				if opts.json() {
					return writeJSON(cmd.OutOrStdout(), history)
				}
				RenderHistory(cmd.OutOrStdout(), history)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", usecase.DefaultHistoryLimit, "number of scans to show")

	return cmd
}
