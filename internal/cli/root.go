package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	newApp AppFactory
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the scanner CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(LoadApp)
}

func newRootCommand(factory AppFactory) *cobra.Command {
	opts := &RootOptions{newApp: factory}

	cmd := &cobra.Command{
		Use:   "scanner",
		Short: "MacroLens barcode scanner",
		Long: `Resolve product barcodes to nutrition facts and a health verdict.

Lookups go to the remote product API when it is reachable and fall back to
the local cache otherwise. Every remote hit is cached, so products seen
once stay available offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewProductsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewAllergensCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// withApp builds the App, runs fn and closes the App afterwards
func (o *RootOptions) withApp(fn func(app *App) error) error {
	factory := o.newApp
	if factory == nil {
		factory = LoadApp
	}
	app, err := factory(o)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize", err)
	}
	defer app.Close()
	return fn(app)
}

func (o *RootOptions) json() bool {
	return o.Format == "json"
}
