package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tasknotes/api/internal/config"
	"tasknotes/api/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tasknotes-api",
	Short: "Task notes REST API",
	Long: `tasknotes-api serves the notes REST API and carries the maintenance
commands for its PostgreSQL schema and search index.

Running it without a subcommand is the same as "serve".`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase loads configuration and connects to Postgres.
func openDatabase(ctx context.Context) (config.Config, *sql.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.Open(ctx, cfg.DatabaseURL, store.DefaultPoolOptions())
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return cfg, db, nil
}
