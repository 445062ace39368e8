package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tasknotes/api/internal/app"
	"tasknotes/api/internal/config"
	"tasknotes/api/internal/search"
	"tasknotes/api/internal/session"
	"tasknotes/api/internal/store"
)

var errMissingSecret = errors.New("TASKNOTES_JWT_SECRET must be changed from the development default in production")

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply pending migrations and start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Production() && cfg.JWTSecret == config.Defaults().JWTSecret {
		fatal("refusing to start", errMissingSecret)
	}

	if !skipMigrations {
		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			fatal("migrations failed", err)
		}
	}

	dataStore := store.NewPostgresStore(db)
	service := app.New(cfg, dataStore)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	service.UseSearch(search.NewService(meiliClient, pgfts))

	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for token revocation and rate limiting")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			fatal("redis connection failed", err)
		}
		defer redisStore.Close()
		service.UseRedis(redisStore)
	} else {
		log.Printf("Using PostgreSQL for token revocation; rate limiting disabled")
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Task notes API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	return nil
}
