package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macrolens/scanner/internal/domain"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <barcode>...",
		Short: "Resolve barcodes to products",
		Long: `Resolve one or more barcodes and print the product, its health verdict,
any allergen warnings and healthier alternatives.

Exits with status 1 when any barcode is not found.

Example:
  scanner resolve 096619036530
  scanner resolve --format json 096619036530 123456`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(func(app *App) error {
				return runResolve(opts, app, cmd, args)
			})
		},
	}
}

func runResolve(opts *RootOptions, app *App, cmd *cobra.Command, barcodes []string) error {
	out := cmd.OutOrStdout()
	results := make([]domain.ResolutionResult, 0, len(barcodes))
	missing := 0

	for i, barcode := range barcodes {
		result := app.Resolver.Resolve(cmd.Context(), barcode)
		if result.Canceled {
			return NewExitError(ExitFailure, "canceled")
		}
		if !result.Found() {
			missing++
		}
		results = append(results, result)

		if !opts.json() {
			if i > 0 {
				fmt.Fprintln(out)
			}
			RenderResult(out, result)
		}
	}

	if opts.json() {
		var payload interface{} = results
		if len(results) == 1 {
			payload = results[0]
		}
		if err := writeJSON(out, payload); err != nil {
			return err
		}
	}

	if missing > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d barcodes not found", missing, len(barcodes)))
	}
	return nil
}
