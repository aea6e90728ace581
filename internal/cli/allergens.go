package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/macrolens/scanner/internal/domain"
)

// NewAllergensCommand creates the allergens command.
func NewAllergensCommand(opts *RootOptions) *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "allergens [allergen...]",
		Short: "Show or replace the allergen profile",
		Long: `With no arguments, print the saved allergen profile. With arguments,
replace it. Scanned products containing any of these allergens are flagged.

Example:
  scanner allergens peanuts dairy
  scanner allergens --clear`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearAll && len(args) > 0 {
				return NewExitError(ExitCommandError, "--clear takes no arguments")
			}
			return opts.withApp(func(app *App) error {
				var (
					allergens domain.Allergens
					err       error
				)
				if clearAll || len(args) > 0 {
					// accept "a,b" as well as "a b"
					allergens, err = app.Profile.SetAllergens(cmd.Context(), strings.Split(strings.Join(args, ","), ","))
				} else {
					allergens, err = app.Profile.Allergens(cmd.Context())
				}
				if err != nil {
					return WrapExitError(ExitFailure, "allergen profile", err)
				}

				if opts.json() {
					return writeJSON(cmd.OutOrStdout(), map[string]domain.Allergens{"allergens": allergens})
				}
				if len(allergens) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No allergens set.")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Allergens: %s\n", strings.Join(allergens, ", "))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearAll, "clear", false, "remove every allergen")

	return cmd
}
