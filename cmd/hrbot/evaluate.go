package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/analysis"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/evaluation"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/history"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/llm"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/logger"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/prompts"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Recompute the evaluation for a finished interview",
	Long: `Re-runs transcript analysis and score aggregation for one candidate and
vacancy pair, replacing the stored evaluation. Useful after tuning vacancy
weights, thresholds or the analysis prompt.`,
	RunE: runEvaluate,
}

var (
	evalCandidateID string
	evalVacancyID   string
)

func init() {
	evaluateCmd.Flags().StringVar(&evalCandidateID, "candidate", "", "Candidate UUID (required)")
	evaluateCmd.Flags().StringVar(&evalVacancyID, "vacancy", "", "Vacancy UUID (required)")
	_ = evaluateCmd.MarkFlagRequired("candidate")
	_ = evaluateCmd.MarkFlagRequired("vacancy")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	candidateID, err := uuid.Parse(evalCandidateID)
	if err != nil {
		return fmt.Errorf("invalid --candidate: %w", err)
	}
	vacancyID, err := uuid.Parse(evalVacancyID)
	if err != nil {
		return fmt.Errorf("invalid --vacancy: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}

	log, err := logger.New(cfg.LogJSON, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	candidate, err := database.GetCandidate(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("failed to load candidate: %w", err)
	}
	if candidate == nil {
		return fmt.Errorf("candidate %s not found", candidateID)
	}

	vacancy, err := database.GetVacancy(ctx, vacancyID)
	if err != nil {
		return fmt.Errorf("failed to load vacancy: %w", err)
	}
	if vacancy == nil {
		return fmt.Errorf("vacancy %s not found", vacancyID)
	}

	model, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer func() { _ = model.Close() }()

	resolver := prompts.NewResolver(database, cfg.TemplateTTL(), log)
	store := history.NewStore(database, log)

	transcript, err := store.ContextSummary(ctx, candidateID, 0, &vacancyID)
	if err != nil {
		return err
	}
	if transcript == "" {
		return fmt.Errorf("no dialogue recorded for candidate %s and vacancy %s", candidateID, vacancyID)
	}

	analyzer := analysis.NewAnalyzer(model, resolver, log)
	data, err := analyzer.Analyze(ctx, transcript, vacancy)
	if err != nil {
		return err
	}

	result := evaluation.Aggregate(data, vacancy.Weights, evaluation.Thresholds{
		Proceed: cfg.ProceedThreshold,
		Reject:  cfg.RejectThreshold,
	})

	// The candidate-facing feedback text was delivered during the interview;
	// recomputing scores must not erase it.
	feedback := ""
	if existing, err := database.GetEvaluation(ctx, candidateID, vacancyID); err == nil && existing != nil {
		feedback = existing.Feedback
	}

	analysisJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}

	saved, err := database.UpsertEvaluation(ctx, &db.EvaluationInput{
		CandidateID:         candidateID,
		VacancyID:           vacancyID,
		OverallScore:        result.Overall,
		TechnicalScore:      result.Technical,
		CommunicationScore:  result.Communication,
		ProblemSolvingScore: result.ProblemSolving,
		Strengths:           data.Strengths,
		Gaps:                data.Gaps,
		Contradictions:      data.Contradictions,
		Recommendation:      result.Recommendation,
		Feedback:            feedback,
		Analysis:            analysisJSON,
	})
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}

	out, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode evaluation: %w", err)
	}
	cmd.Println(string(out))
	return nil
}
