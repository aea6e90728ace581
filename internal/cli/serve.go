package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpDelivery "github.com/macrolens/scanner/internal/delivery/http"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local API for a display client",
		Long: `Serve the resolution engine over HTTP on localhost so a display client can
render results. When sync.interval is set the catalog is refreshed in the
background. SIGINT or SIGTERM shuts both down.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(func(app *App) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return runServe(ctx, opts, app)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "", "listen port (overrides server.port)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions, app *App) error {
	port := app.Config.Server.Port
	if opts.Port != "" {
		port = opts.Port
	}

	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Resolver: app.Resolver,
		Syncer:   app.Syncer,
		Monitor:  app.Monitor,
		Profile:  app.Profile,
	}, app.Logger)
	router := httpDelivery.SetupRouter(app.Config, handler, app.Logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if app.Config.Sync.OnStart {
		go app.Syncer.SyncAll(ctx)
	}
	go app.Syncer.Run(ctx, app.Config.Sync.Interval)

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", app.Config.Server.Environment),
			zap.Duration("sync_interval", app.Config.Sync.Interval))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return WrapExitError(ExitCommandError, "server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	return nil
}
