// Package main provides the entry point for the Bandly API server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/bandly/bandly/internal/api"
	"github.com/bandly/bandly/internal/auth"
	"github.com/bandly/bandly/internal/band"
	"github.com/bandly/bandly/internal/events"
	"github.com/bandly/bandly/internal/mailer"
	pgstore "github.com/bandly/bandly/internal/store/postgres"
	"github.com/bandly/bandly/pkg/config"
	"github.com/bandly/bandly/pkg/logger"
)

func main() {
	// Local development convenience; a missing .env file is fine.
	_ = godotenv.Load()

	// Initialize logger
	log := logger.New(slog.LevelInfo, true)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database store
	storeCfg := pgstore.DefaultConfig(cfg.DatabaseDSN)
	store, err := pgstore.NewPostgresStore(storeCfg, log.Logger)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Apply schema migrations
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pgstore.Migrate(migrateCtx, store.DB()); err != nil {
		cancelMigrate()
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	cancelMigrate()

	// Initialize auth service
	authCfg := &auth.Config{
		JWTSecret:   []byte(cfg.JWTSecret),
		TokenExpiry: cfg.JWTExpiry,
	}
	authService := auth.NewService(authCfg, log.Logger)

	// Initialize invitation mailer
	inviteMailer := mailer.New(&mailer.Config{
		APIKey:      cfg.Mailer.ResendAPIKey,
		FromAddress: cfg.Mailer.FromAddress,
		InviteURL:   cfg.Mailer.InviteURL,
	}, log.Logger)

	// Initialize the roster event hub
	hub := events.NewHub(log.Logger)
	go hub.Run()

	// Initialize the band membership service
	bandService := band.NewService(store, inviteMailer, hub, log.Logger)

	// Create and start the API server
	server := api.NewServer(cfg, store, bandService, authService, hub, log.Logger)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Start the server
	log.Info("starting API server",
		"host", cfg.APIHost,
		"port", cfg.APIPort,
	)

	if err := server.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	// Give time for graceful shutdown
	time.Sleep(100 * time.Millisecond)
	log.Info("server stopped")
}
