package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macrolens/scanner/internal/domain"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Product     domain.Product
	Allergens   string
	HealthScore int
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <barcode>",
		Short: "Add a product to the remote catalog",
		Long: `Submit a product the remote catalog does not know yet. The product is
cached locally once the remote accepts it. Without --health-score the score
is derived from the nutrients.

Example:
  scanner add 4011 --name Banana --category fruit --calories 89 --sugar 12 --fiber 2.6`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.HealthScore > 100 {
				return NewExitError(ExitCommandError, "--health-score must be at most 100")
			}
			return opts.withApp(func(app *App) error {
				p := opts.Product
				p.Barcode = args[0]
				p.Allergens = domain.ParseAllergens(opts.Allergens)
				p.HealthScore = opts.HealthScore

				if err := app.Syncer.Submit(cmd.Context(), &p); err != nil {
					if errors.Is(err, domain.ErrValidation) {
						return WrapExitError(ExitCommandError, "invalid product", err)
					}
					return WrapExitError(ExitFailure, "failed to add product", err)
				}

				if opts.json() {
					return writeJSON(cmd.OutOrStdout(), p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s), health score %d/100\n", p.Name, p.Barcode, p.HealthScore)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Product.Name, "name", "", "product name (required)")
	f.StringVar(&opts.Product.Brand, "brand", "", "brand")
	f.StringVar(&opts.Product.Category, "category", "", "category used for alternatives")
	f.IntVar(&opts.Product.Calories, "calories", 0, "kcal")
	f.Float64Var(&opts.Product.Protein, "protein", 0, "protein in g")
	f.Float64Var(&opts.Product.Carbs, "carbs", 0, "carbohydrates in g")
	f.Float64Var(&opts.Product.Sugar, "sugar", 0, "sugar in g")
	f.Float64Var(&opts.Product.Fats, "fats", 0, "fat in g")
	f.Float64Var(&opts.Product.SaturatedFats, "saturated-fats", 0, "saturated fat in g")
	f.Float64Var(&opts.Product.Fiber, "fiber", 0, "fiber in g")
	f.Float64Var(&opts.Product.Sodium, "sodium", 0, "sodium in mg")
	f.StringVar(&opts.Allergens, "allergens", "", "comma-separated allergens")
	f.IntVar(&opts.HealthScore, "health-score", -1, "health score 0-100 (derived when omitted)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
