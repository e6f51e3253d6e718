package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pgpwatch/munin-pgp-expiration/internal/config"
	"github.com/pgpwatch/munin-pgp-expiration/internal/expiry"
	"github.com/pgpwatch/munin-pgp-expiration/internal/logging"
	"github.com/pgpwatch/munin-pgp-expiration/internal/plugin"
	"github.com/pgpwatch/munin-pgp-expiration/internal/scheduler"
	"github.com/pgpwatch/munin-pgp-expiration/internal/snapshot"
	"github.com/pgpwatch/munin-pgp-expiration/internal/wkd"
)

func main() {
	// Optional .env for local development; munin-node provides the real
	// environment in production.
	_ = godotenv.Load()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "munin-pgp-expiration: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "munin-pgp-expiration [verb]",
		Short: "Munin plugin reporting days until OpenPGP key expiration",
		// Munin probes plugins with verbs this plugin does not implement
		// (autoconf, suggest, ...); anything unrecognized falls through to
		// value mode, as does a bare invocation.
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, log, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer log.Sync()
			return app.EmitValues(cmd.Context(), os.Stdout)
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "config",
			Short: "Emit the graph configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app, _, log, err := buildApp(cmd.Context())
				if err != nil {
					return err
				}
				defer log.Sync()
				return app.EmitConfig(cmd.Context(), os.Stdout)
			},
		},
		&cobra.Command{
			Use:   "cron",
			Short: "Refresh the cached snapshot from the key directories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app, _, log, err := buildApp(cmd.Context())
				if err != nil {
					return err
				}
				defer log.Sync()
				_, err = app.Refresh(cmd.Context())
				return err
			},
		},
		&cobra.Command{
			Use:   "daemon",
			Short: "Run as a service, refreshing the snapshot on a cron schedule",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app, cfg, log, err := buildApp(cmd.Context())
				if err != nil {
					return err
				}
				defer log.Sync()
				sched := scheduler.New(cfg.RefreshSchedule, func(ctx context.Context) error {
					_, err := app.Refresh(ctx)
					return err
				}, log)
				return sched.Run(cmd.Context())
			},
		},
	)
	return root
}

// buildApp loads configuration and wires the resolution pipeline. Config
// problems abort here, before any network or file activity.
func buildApp(ctx context.Context) (*plugin.App, *config.Config, *logging.ZapLogger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	client := wkd.NewClient(cfg.FetchTimeout)
	evaluator := expiry.NewEvaluator(client, nil, log)
	runner := expiry.NewRunner(evaluator, cfg.MaxConcurrent, log)
	store := snapshot.NewStore(cfg.StateDir)

	return plugin.New(cfg, runner, store, log), cfg, log, nil
}
