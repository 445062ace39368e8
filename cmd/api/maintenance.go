package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"tasknotes/api/internal/search"
	"tasknotes/api/internal/store"
)

var backfillStatusCmd = &cobra.Command{
	Use:   "backfill-status",
	Short: "Set status to pending on notes stored without one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		updated, err := store.NewPostgresStore(db).BackfillMissingStatus(ctx)
		if err != nil {
			return fmt.Errorf("backfill status: %w", err)
		}
		log.Printf("backfilled status on %d note(s)", updated)
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Meilisearch notes index from PostgreSQL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		if strings.TrimSpace(cfg.MeiliURL) == "" {
			return fmt.Errorf("MEILI_URL is not configured")
		}
		meiliClient := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
		if !meiliClient.Healthy() {
			return fmt.Errorf("meilisearch at %s is not reachable", cfg.MeiliURL)
		}

		count, err := search.NewService(meiliClient, search.NewPgFTS(db)).ReindexAllFromPG(ctx)
		if err != nil {
			return fmt.Errorf("reindex: %w", err)
		}
		log.Printf("reindexed %d note(s)", count)
		return nil
	},
}

var purgeRevocationsCmd = &cobra.Command{
	Use:   "purge-revocations",
	Short: "Delete expired entries from the PostgreSQL token denylist",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		_, db, err := openDatabase(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		removed, err := store.NewPostgresStore(db).PurgeExpiredRevocations(ctx)
		if err != nil {
			return fmt.Errorf("purge revocations: %w", err)
		}
		log.Printf("purged %d expired revocation(s)", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backfillStatusCmd, reindexCmd, purgeRevocationsCmd)
}
