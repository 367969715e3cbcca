package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/logger"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/prompts"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin REST API on its own",
	Long: `Starts only the admin REST API, without the Telegram poller or model
client. Useful for managing vacancies, templates and evaluations from a
deployment that has no bot credentials.

Requires DATABASE_URL, via environment variables, a .env file, or --config.`,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Admin API port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if servePort != 0 {
		cfg.AdminPort = servePort
	}
	if cfg.AdminPort <= 0 {
		return fmt.Errorf("admin port must be positive, got %d", cfg.AdminPort)
	}

	log, err := logger.New(cfg.LogJSON, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	resolver := prompts.NewResolver(database, cfg.TemplateTTL(), log)
	admin := server.New(server.Config{Port: cfg.AdminPort}, database, database, database, database, resolver, database, log)

	err = admin.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		log.Error("admin server stopped with error", zap.Error(err))
		return err
	}
	log.Info("admin server stopped")
	return nil
}
