// Package cli implements the snt command: the portal server plus the
// operator commands that share its configuration.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/SmokyRM/snt-ulybka-sub000/internal/app"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/config"
	"github.com/SmokyRM/snt-ulybka-sub000/internal/logging"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Options are the global flags shared by every subcommand.
type Options struct {
	ConfigPath string
	// IsInteractive reports whether prompts may be shown; nil means
	// "stdin is a terminal".
	IsInteractive func() bool
}

func (o *Options) interactive() bool {
	if o.IsInteractive != nil {
		return o.IsInteractive()
	}
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewRootCmd creates the top-level "snt" command and registers all
// subcommands.
func NewRootCmd(opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "snt",
		Short:         "СНТ «Улыбка» portal: resident cabinet, admin console and QA tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config.yaml (default ./config.yaml when present)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newSeedCmd(opts),
		newUserCmd(opts),
		newDebtsCmd(opts),
		newQACmd(opts),
	)
	return root
}

func (o *Options) loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// withApp opens the application for one command and closes it afterwards.
func (o *Options) withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, logger, err := o.loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("opening application: %w", err)
	}
	defer a.Close()
	return fn(a)
}
