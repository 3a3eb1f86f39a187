package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/pulse-api/internal/config"
	"github.com/phrazzld/pulse-api/internal/platform/logger"
	"github.com/phrazzld/pulse-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Env        string
	ConfigFile string
}

// newRootCommand creates the root command. Without a subcommand it serves.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "pulse-api",
		Short:         "Pulse API server",
		Long:          "HTTP API for accounts, login sessions and uptime check definitions.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Env, "env", "",
		"environment profile (staging|production), defaults to $PULSE_ENV")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "optional YAML config file")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))

	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|version]",
		Short: "Run PostgreSQL schema migrations",
		Long: `Run the embedded schema migrations against storage.database_url.

Only meaningful with the postgres storage backend.

Example:
  pulse-api migrate up --env production`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus, postgres.MigrateVersion},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := postgres.MigrateUp
			if len(args) == 1 {
				command = args[0]
			}
			return runMigrate(cmd.Context(), opts, command)
		},
	}
}

// loadConfig resolves configuration and installs the process logger.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.LoadFile(opts.Env, opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if _, err := logger.Setup(cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.serve(ctx)
}

func runMigrate(ctx context.Context, opts *rootOptions, command string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if cfg.Storage.Backend != config.BackendPostgres {
		return fmt.Errorf("migrate requires the postgres storage backend, got %q", cfg.Storage.Backend)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	db, err := postgres.Open(ctx, cfg.Storage.DatabaseURL, nil)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return postgres.Migrate(ctx, db, command, nil)
}
