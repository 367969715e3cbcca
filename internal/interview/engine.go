// Package interview drives the conversation state machine: vacancy
// selection, a fixed-length question loop and the closing feedback turn
// that produces the persisted evaluation.
package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/analysis"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/evaluation"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/history"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/llm"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/logger"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/prompts"
)

// StateStore is the slice of the durable store the engine needs for
// interview state. *db.DB satisfies it.
type StateStore interface {
	ActiveInterviewState(ctx context.Context, candidateID uuid.UUID) (*db.InterviewState, error)
	LatestInterviewState(ctx context.Context, candidateID uuid.UUID) (*db.InterviewState, error)
	GetInterviewState(ctx context.Context, candidateID, vacancyID uuid.UUID) (*db.InterviewState, error)
	CreateInterviewState(ctx context.Context, candidateID, vacancyID uuid.UUID) (*db.InterviewState, error)
	SaveInterviewState(ctx context.Context, state *db.InterviewState) error
}

// VacancyCatalog is the read side of the vacancy store.
type VacancyCatalog interface {
	ListActiveVacancies(ctx context.Context) ([]db.Vacancy, error)
	GetVacancy(ctx context.Context, id uuid.UUID) (*db.Vacancy, error)
}

// EvaluationSink persists the scored outcome of a finished interview.
type EvaluationSink interface {
	UpsertEvaluation(ctx context.Context, input *db.EvaluationInput) (*db.Evaluation, error)
}

// Message is one inbound candidate message, transport-agnostic.
type Message struct {
	ExternalUserID int64
	FirstName      string
	LastName       string
	Username       string
	Text           string
}

// Options tune the engine. Zero values fall back to the defaults used in
// production config.
type Options struct {
	QuestionLimit int
	HistoryWindow int
	Thresholds    evaluation.Thresholds
}

// Engine orchestrates one candidate turn end to end.
type Engine struct {
	states    StateStore
	vacancies VacancyCatalog
	evals     EvaluationSink
	history   *history.Store
	resolver  *prompts.Resolver
	model     llm.Client
	analyzer  *analysis.Analyzer
	log       *zap.Logger

	questionLimit int
	historyWindow int
	thresholds    evaluation.Thresholds
}

// NewEngine wires the engine over its stores and the model client.
func NewEngine(states StateStore, vacancies VacancyCatalog, evals EvaluationSink, hist *history.Store, resolver *prompts.Resolver, model llm.Client, analyzer *analysis.Analyzer, log *zap.Logger, opts Options) *Engine {
	if opts.QuestionLimit <= 0 {
		opts.QuestionLimit = 5
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 20
	}
	if opts.Thresholds.Proceed == 0 && opts.Thresholds.Reject == 0 {
		opts.Thresholds = evaluation.Thresholds{Proceed: 75, Reject: 40}
	}
	return &Engine{
		states:        states,
		vacancies:     vacancies,
		evals:         evals,
		history:       hist,
		resolver:      resolver,
		model:         model,
		analyzer:      analyzer,
		log:           logger.Safe(log),
		questionLimit: opts.QuestionLimit,
		historyWindow: opts.HistoryWindow,
		thresholds:    opts.Thresholds,
	}
}

// HandleMessage processes one candidate message and returns the reply text.
// On error the interview state has not advanced and the same message may be
// retried.
func (e *Engine) HandleMessage(ctx context.Context, msg Message) (string, error) {
	candidate, err := e.history.EnsureCandidate(ctx, db.CandidateInput{
		ExternalID: msg.ExternalUserID,
		FirstName:  msg.FirstName,
		LastName:   msg.LastName,
		Username:   msg.Username,
	})
	if err != nil {
		return "", err
	}

	state, err := e.states.ActiveInterviewState(ctx, candidate.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load interview state: %w", err)
	}
	if state == nil {
		return e.handleSelection(ctx, candidate, msg.Text)
	}
	return e.handleAnswer(ctx, candidate, state, msg.Text)
}

// handleSelection runs when the candidate has no interview in progress:
// either they are picking a vacancy, or their last interview is already done.
func (e *Engine) handleSelection(ctx context.Context, candidate *db.Candidate, text string) (string, error) {
	open, err := e.vacancies.ListActiveVacancies(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list vacancies: %w", err)
	}

	if selected := matchVacancy(open, text); selected != nil {
		// Each (candidate, vacancy) pair is interviewed at most once. A
		// finished candidate may still start over against a different vacancy.
		prior, err := e.states.GetInterviewState(ctx, candidate.ID, selected.ID)
		if err != nil {
			return "", fmt.Errorf("failed to load interview state: %w", err)
		}
		if prior != nil && prior.Terminal() {
			return e.alreadyFinished(ctx, candidate, prior), nil
		}
		return e.startInterview(ctx, candidate, selected, text)
	}

	latest, err := e.states.LatestInterviewState(ctx, candidate.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load interview state: %w", err)
	}
	if latest != nil && latest.Terminal() {
		return e.alreadyFinished(ctx, candidate, latest), nil
	}
	return e.selectionMenu(ctx, candidate, open, text)
}

// selectionMenu replies with the open-vacancy list. The model phrases the
// greeting; a model outage degrades to a plain static menu rather than
// failing the turn.
func (e *Engine) selectionMenu(ctx context.Context, candidate *db.Candidate, open []db.Vacancy, text string) (string, error) {
	menu := formatVacancyMenu(open)
	prompt := e.resolver.RenderNamed(ctx, prompts.NameVacancySelection, map[string]any{
		"candidate_name": candidate.DisplayName(),
		"vacancies":      menu,
		"message":        text,
	})

	reply, err := e.model.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil || strings.TrimSpace(reply) == "" {
		e.log.Warn("vacancy menu model call failed, serving static menu",
			logger.Candidate(candidate.ID), zap.Error(err))
		reply = "Hello! These positions are currently open:\n\n" + menu +
			"\n\nReply with a number or a position title to start the interview."
	}
	return reply, nil
}

// startInterview asks the opening question for the chosen vacancy. State is
// created only once the question came back usable, so a failed opening turn
// leaves the candidate in selection and the same message may be retried.
func (e *Engine) startInterview(ctx context.Context, candidate *db.Candidate, vacancy *db.Vacancy, text string) (string, error) {
	summary, err := e.transcript(ctx, candidate.ID, vacancy, text)
	if err != nil {
		return "", err
	}
	question, err := e.nextQuestion(ctx, vacancy, summary, 1)
	if err != nil {
		return "", err
	}

	state, err := e.states.CreateInterviewState(ctx, candidate.ID, vacancy.ID)
	if err != nil {
		return "", fmt.Errorf("failed to start interview: %w", err)
	}

	reply := fmt.Sprintf("Great, let's begin the interview for %q. I will ask you %d questions.\n\n%s",
		vacancy.Title, e.questionLimit, question.Question)
	if err := e.appendEntry(ctx, db.NewTextEntry(candidate.ID, &vacancy.ID, db.SenderCandidate, text)); err != nil {
		return "", err
	}
	if err := e.appendEntry(ctx, db.NewTextEntry(candidate.ID, &vacancy.ID, db.SenderBot, reply)); err != nil {
		return "", err
	}

	e.log.Info("interview started",
		logger.Candidate(candidate.ID),
		logger.Vacancy(&vacancy.ID),
		zap.String(logger.FieldStage, state.Stage))
	return reply, nil
}

// handleAnswer processes one answer inside a running interview. The question
// counter advances exactly once per successfully processed answer; any model
// or parse failure leaves it untouched.
func (e *Engine) handleAnswer(ctx context.Context, candidate *db.Candidate, state *db.InterviewState, text string) (string, error) {
	if state.VacancyID == nil {
		return "", fmt.Errorf("interview state %s has no vacancy", state.ID)
	}
	vacancy, err := e.vacancies.GetVacancy(ctx, *state.VacancyID)
	if err != nil {
		return "", fmt.Errorf("failed to load vacancy: %w", err)
	}
	if vacancy == nil {
		return "", fmt.Errorf("vacancy %s no longer exists", *state.VacancyID)
	}

	answered := state.QuestionCount + 1
	if answered >= e.questionLimit {
		return e.finishInterview(ctx, candidate, state, vacancy, answered, text)
	}

	summary, err := e.transcript(ctx, candidate.ID, vacancy, text)
	if err != nil {
		return "", err
	}
	question, err := e.nextQuestion(ctx, vacancy, summary, answered+1)
	if err != nil {
		return "", err
	}

	// The answer is recorded only once the turn produced a usable question,
	// so a retried message never duplicates transcript entries.
	if err := e.appendEntry(ctx, db.NewTextEntry(candidate.ID, &vacancy.ID, db.SenderCandidate, text)); err != nil {
		return "", err
	}
	state.QuestionCount = answered
	if err := e.states.SaveInterviewState(ctx, state); err != nil {
		return "", fmt.Errorf("failed to save interview state: %w", err)
	}
	if err := e.appendEntry(ctx, db.NewTextEntry(candidate.ID, &vacancy.ID, db.SenderBot, question.Question)); err != nil {
		return "", err
	}
	return question.Question, nil
}

// transcript renders the stored dialogue plus the not-yet-persisted message
// of the current turn, so prompts see the full exchange before anything is
// written.
func (e *Engine) transcript(ctx context.Context, candidateID uuid.UUID, vacancy *db.Vacancy, pending string) (string, error) {
	summary, err := e.history.ContextSummary(ctx, candidateID, e.historyWindow, &vacancy.ID)
	if err != nil {
		return "", err
	}
	line := "Candidate: " + pending
	if summary == "" {
		return line, nil
	}
	return summary + "\n" + line, nil
}

// nextQuestion asks the model for question number n and validates the reply.
func (e *Engine) nextQuestion(ctx context.Context, vacancy *db.Vacancy, summary string, n int) (*ParsedQuestion, error) {
	prompt := e.resolver.RenderNamed(ctx, prompts.NameInterviewQuestion, map[string]any{
		"vacancy_title":   vacancy.Title,
		"requirements":    analysis.FormatRequirements(vacancy.Requirements),
		"history":         summary,
		"question_number": n,
		"total_questions": e.questionLimit,
	})

	raw, err := e.model.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("question model call failed: %w", err)
	}
	return ParseQuestion(raw)
}

// finishInterview runs the closing turn: feedback generation, transcript
// analysis, score aggregation and the evaluation upsert, then the single
// transition to the terminal stage. Every step must succeed before any state
// is advanced, so a failed closing turn is fully retryable.
func (e *Engine) finishInterview(ctx context.Context, candidate *db.Candidate, state *db.InterviewState, vacancy *db.Vacancy, answered int, text string) (string, error) {
	stored, err := e.history.ContextSummary(ctx, candidate.ID, 0, &vacancy.ID)
	if err != nil {
		return "", err
	}
	transcript := "Candidate: " + text
	if stored != "" {
		transcript = stored + "\n" + transcript
	}

	prompt := e.resolver.RenderNamed(ctx, prompts.NameInterviewFeedback, map[string]any{
		"vacancy_title":  vacancy.Title,
		"candidate_name": candidate.DisplayName(),
		"history":        transcript,
	})
	raw, err := e.model.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", fmt.Errorf("feedback model call failed: %w", err)
	}
	feedback, err := ParseFeedback(raw)
	if err != nil {
		return "", err
	}

	data, err := e.analyzer.Analyze(ctx, transcript, vacancy)
	if err != nil {
		return "", err
	}
	result := evaluation.Aggregate(data, vacancy.Weights, e.thresholds)

	analysisJSON, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis: %w", err)
	}

	if _, err := e.evals.UpsertEvaluation(ctx, &db.EvaluationInput{
		CandidateID:         candidate.ID,
		VacancyID:           vacancy.ID,
		OverallScore:        result.Overall,
		TechnicalScore:      result.Technical,
		CommunicationScore:  result.Communication,
		ProblemSolvingScore: result.ProblemSolving,
		Strengths:           data.Strengths,
		Gaps:                data.Gaps,
		Contradictions:      data.Contradictions,
		Recommendation:      result.Recommendation,
		Feedback:            feedback.Feedback,
		Analysis:            analysisJSON,
	}); err != nil {
		return "", fmt.Errorf("failed to save evaluation: %w", err)
	}

	state.QuestionCount = answered
	state.Stage = db.StageCompleted
	if err := e.states.SaveInterviewState(ctx, state); err != nil {
		return "", fmt.Errorf("failed to complete interview: %w", err)
	}

	if err := e.appendEntry(ctx, db.NewTextEntry(candidate.ID, &vacancy.ID, db.SenderCandidate, text)); err != nil {
		return "", err
	}
	if err := e.appendEntry(ctx, db.NewTextEntry(candidate.ID, &vacancy.ID, db.SenderBot, feedback.Feedback)); err != nil {
		return "", err
	}

	e.log.Info("interview completed",
		logger.Candidate(candidate.ID),
		logger.Vacancy(&vacancy.ID),
		zap.Int("overall_score", result.Overall),
		zap.String("recommendation", result.Recommendation))
	return feedback.Feedback, nil
}

// alreadyFinished renders the closing reply for a candidate whose interview
// is done. Read-only: nothing is persisted.
func (e *Engine) alreadyFinished(ctx context.Context, candidate *db.Candidate, state *db.InterviewState) string {
	title := "the position"
	if state.VacancyID != nil {
		if vacancy, err := e.vacancies.GetVacancy(ctx, *state.VacancyID); err == nil && vacancy != nil {
			title = vacancy.Title
		}
	}
	return e.resolver.RenderNamed(ctx, prompts.NameAlreadyFinished, map[string]any{
		"candidate_name": candidate.DisplayName(),
		"vacancy_title":  title,
	})
}

// appendEntry writes a dialogue entry, tolerating cache-only degradation.
func (e *Engine) appendEntry(ctx context.Context, entry db.DialogueEntry) error {
	if err := e.history.Append(ctx, entry); err != nil {
		var degraded *history.DegradedError
		if !errors.As(err, &degraded) {
			return err
		}
	}
	return nil
}

// matchVacancy resolves candidate input to one of the open vacancies: a
// 1-based menu number, or a case-insensitive title match.
func matchVacancy(open []db.Vacancy, text string) *db.Vacancy {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= len(open) {
			return &open[n-1]
		}
		return nil
	}

	lowered := strings.ToLower(trimmed)
	for i := range open {
		title := strings.ToLower(open[i].Title)
		if title == lowered || strings.Contains(lowered, title) {
			return &open[i]
		}
		// Partial title entry, guarded against one-letter noise.
		if len(lowered) >= 3 && strings.Contains(title, lowered) {
			return &open[i]
		}
	}
	return nil
}

// formatVacancyMenu renders the numbered open-vacancy list.
func formatVacancyMenu(open []db.Vacancy) string {
	if len(open) == 0 {
		return "No open positions right now. Please check back later."
	}
	lines := make([]string, 0, len(open))
	for i, v := range open {
		line := fmt.Sprintf("%d. %s", i+1, v.Title)
		if v.Description != "" {
			line += " - " + logger.TruncateForLog(v.Description, 120)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
