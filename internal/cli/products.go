package cli

import (
	"github.com/spf13/cobra"
)

// NewProductsCommand creates the products command.
func NewProductsCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "products",
		Short:         "List cached products",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return NewExitError(ExitCommandError, "--limit must not be negative")
			}
			return opts.withApp(func(app *App) error {
				products, err := app.Profile.Products(cmd.Context(), limit)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to list products", err)
				}
				if opts.json() {
					return writeJSON(cmd.OutOrStdout(), products)
				}
				RenderProducts(cmd.OutOrStdout(), products)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum products to list (0 lists all)")

	return cmd
}
