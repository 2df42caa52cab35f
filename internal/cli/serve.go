package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/app"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/health"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/importer"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/qa"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/repository"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *Options) *cobra.Command {
	var seedDemo bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx := cmd.Context()
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("opening application: %w", err)
			}
			defer a.Close()

			if seedDemo {
				if err := seedDemoOnce(ctx, a); err != nil {
					return err
				}
			}

			var toolkit *qa.Toolkit
			if cfg.QA.Enabled {
				if toolkit, err = newToolkit(cfg.QA, a.Metrics); err != nil {
					return fmt.Errorf("building qa toolkit: %w", err)
				}
				defer toolkit.Close()
				logger.Warn("qa tooling enabled; stage and role overrides are honoured", zap.String("base_url", cfg.QA.BaseURL))
			}

			srv, err := server.NewServer(cfg, server.Deps{
				Services: a.Services,
				Metrics:  a.Metrics,
				Checks: map[string]health.Pinger{
					"database": health.PingFunc(a.DB.PingContext),
					"sessions": a.Sessions,
				},
				QA: toolkit,
			}, logger)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server shutdown failed", zap.Error(err))
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&seedDemo, "seed-demo", false, "load the demo data set when the database is empty")
	return cmd
}

// seedDemoOnce loads the demo set unless the database already has users.
func seedDemoOnce(ctx context.Context, a *app.App) error {
	users, err := a.Repos.Users.List(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		a.Logger.Info("database already populated; demo seed skipped", zap.Int("users", len(users)))
		return nil
	}
	schema, err := importer.DemoSchema()
	if err != nil {
		return err
	}
	if _, err := a.Seed(ctx, schema); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("seeding demo data: %w", err)
	}
	return nil
}
