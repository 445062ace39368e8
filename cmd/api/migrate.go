package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"tasknotes/api/internal/store"
)

var (
	migrateDown  bool
	migrateSteps int
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back schema migrations",
	Long: `Apply all pending migrations from the migrations directory.
With --down, roll back the newest --steps migrations instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if migrateDown {
			if migrateSteps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			rolledBack, err := store.RollbackMigrations(ctx, db, cfg.MigrationsDir, migrateSteps)
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			log.Printf("rolled back %d migration(s)", rolledBack)
			return nil
		}

		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		log.Printf("migrations applied from %s", cfg.MigrationsDir)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back instead of applying")
	migrateCmd.Flags().IntVar(&migrateSteps, "steps", 1, "Number of migrations to roll back with --down")
	rootCmd.AddCommand(migrateCmd)
}
