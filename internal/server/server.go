// Package server is the admin HTTP API: vacancy and prompt-template
// management plus read access to evaluations. Candidates never touch this
// surface; it is meant to sit behind the deployment's private network.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/logger"
)

// VacancyStore is the vacancy CRUD surface backed by *db.DB.
type VacancyStore interface {
	CreateVacancy(ctx context.Context, input *db.VacancyInput) (*db.Vacancy, error)
	UpdateVacancy(ctx context.Context, id uuid.UUID, input *db.VacancyInput) (*db.Vacancy, error)
	GetVacancy(ctx context.Context, id uuid.UUID) (*db.Vacancy, error)
	ListVacancies(ctx context.Context) ([]db.Vacancy, error)
	DeleteVacancy(ctx context.Context, id uuid.UUID) error
}

// TemplateStore is the prompt-template CRUD surface.
type TemplateStore interface {
	ListTemplates(ctx context.Context) ([]db.PromptTemplate, error)
	GetTemplateByName(ctx context.Context, name string) (*db.PromptTemplate, error)
	UpsertTemplate(ctx context.Context, input *db.PromptTemplateInput) (*db.PromptTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
}

// EvaluationStore is the read-only evaluation surface.
type EvaluationStore interface {
	GetEvaluationByID(ctx context.Context, id uuid.UUID) (*db.Evaluation, error)
	GetEvaluation(ctx context.Context, candidateID, vacancyID uuid.UUID) (*db.Evaluation, error)
	ListEvaluationsByVacancy(ctx context.Context, vacancyID uuid.UUID) ([]db.Evaluation, error)
}

// CandidateStore is the read-only candidate surface.
type CandidateStore interface {
	GetCandidate(ctx context.Context, id uuid.UUID) (*db.Candidate, error)
	GetCandidateByExternalID(ctx context.Context, externalID int64) (*db.Candidate, error)
}

// Invalidator is notified after any template write so cached copies refresh
// on the next lookup. *prompts.Resolver is the production implementation.
type Invalidator interface {
	Invalidate()
}

// Pinger reports backing-store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration.
type Config struct {
	Port int
}

// Server is the admin HTTP server.
type Server struct {
	httpServer  *http.Server
	vacancies   VacancyStore
	templates   TemplateStore
	evaluations EvaluationStore
	candidates  CandidateStore
	invalidator Invalidator
	pinger      Pinger
	log         *zap.Logger
}

// New wires the router. Any nil store disables its routes with 404s rather
// than panicking, which keeps partial deployments (bot without admin DB
// access) possible.
func New(cfg Config, vacancies VacancyStore, templates TemplateStore, evaluations EvaluationStore, candidates CandidateStore, invalidator Invalidator, pinger Pinger, log *zap.Logger) *Server {
	s := &Server{
		vacancies:   vacancies,
		templates:   templates,
		evaluations: evaluations,
		candidates:  candidates,
		invalidator: invalidator,
		pinger:      pinger,
		log:         logger.Safe(log),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /vacancies", s.handleListVacancies)
	mux.HandleFunc("POST /vacancies", s.handleCreateVacancy)
	mux.HandleFunc("GET /vacancies/{id}", s.handleGetVacancy)
	mux.HandleFunc("PUT /vacancies/{id}", s.handleUpdateVacancy)
	mux.HandleFunc("DELETE /vacancies/{id}", s.handleDeleteVacancy)
	mux.HandleFunc("GET /vacancies/{id}/evaluations", s.handleListEvaluations)

	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("PUT /templates", s.handleUpsertTemplate)
	mux.HandleFunc("GET /templates/{name}", s.handleGetTemplate)
	mux.HandleFunc("DELETE /templates/{id}", s.handleDeleteTemplate)

	mux.HandleFunc("GET /evaluations/{id}", s.handleGetEvaluation)
	mux.HandleFunc("GET /evaluations", s.handleGetEvaluationByPair)

	mux.HandleFunc("GET /candidates/{id}", s.handleGetCandidate)
	mux.HandleFunc("GET /candidates", s.handleGetCandidateByExternalID)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withLogging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("admin server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.errorResponse(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// pathUUID parses the named path segment as a UUID, replying 400 on failure.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}
