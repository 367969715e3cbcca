package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/analysis"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/evaluation"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/history"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/interview"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/llm"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/logger"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/prompts"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/server"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/telegram"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interview bot",
	Long: `Starts the Telegram long-poll loop and, unless disabled, the admin REST API.

Requires TELEGRAM_BOT_TOKEN, GEMINI_API_KEY and DATABASE_URL, via environment
variables, a .env file, or --config.`,
	RunE: runBot,
}

var runAdminPort int

func init() {
	runCmd.Flags().IntVar(&runAdminPort, "admin-port", 0, "Admin API port (overrides config; -1 disables)")
	rootCmd.AddCommand(runCmd)
}

func runBot(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if runAdminPort != 0 {
		cfg.AdminPort = runAdminPort
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

	model, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer func() { _ = model.Close() }()

	resolver := prompts.NewResolver(database, cfg.TemplateTTL(), log)
	store := history.NewStore(database, log)
	analyzer := analysis.NewAnalyzer(model, resolver, log)

	engine := interview.NewEngine(database, database, database, store, resolver, model, analyzer, log, interview.Options{
		QuestionLimit: cfg.QuestionLimit,
		HistoryWindow: cfg.HistoryWindow,
		Thresholds: evaluation.Thresholds{
			Proceed: cfg.ProceedThreshold,
			Reject:  cfg.RejectThreshold,
		},
	})
	dispatcher := interview.NewDispatcher(engine)
	poller := telegram.NewPoller(telegram.NewClient(cfg.TelegramToken, "", nil), dispatcher, log)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting telegram poller")
		return poller.Run(groupCtx)
	})
	if cfg.AdminPort > 0 {
		admin := server.New(server.Config{Port: cfg.AdminPort}, database, database, database, database, resolver, database, log)
		group.Go(func() error {
			return admin.Run(groupCtx)
		})
	}

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		log.Error("bot stopped with error", zap.Error(err))
		return err
	}
	log.Info("bot stopped")
	return nil
}
