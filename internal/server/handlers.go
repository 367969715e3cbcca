package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
)

func (s *Server) handleListVacancies(w http.ResponseWriter, r *http.Request) {
	vacancies, err := s.vacancies.ListVacancies(r.Context())
	if err != nil {
		s.internalError(w, "failed to list vacancies", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, vacancies)
}

func (s *Server) handleCreateVacancy(w http.ResponseWriter, r *http.Request) {
	var input db.VacancyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	vacancy, err := s.vacancies.CreateVacancy(r.Context(), &input)
	if err != nil {
		s.internalError(w, "failed to create vacancy", err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, vacancy)
}

func (s *Server) handleGetVacancy(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	vacancy, err := s.vacancies.GetVacancy(r.Context(), id)
	if err != nil {
		s.internalError(w, "failed to load vacancy", err)
		return
	}
	if vacancy == nil {
		s.errorResponse(w, http.StatusNotFound, "vacancy not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, vacancy)
}

func (s *Server) handleUpdateVacancy(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	var input db.VacancyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	vacancy, err := s.vacancies.UpdateVacancy(r.Context(), id, &input)
	if err != nil {
		s.internalError(w, "failed to update vacancy", err)
		return
	}
	if vacancy == nil {
		s.errorResponse(w, http.StatusNotFound, "vacancy not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, vacancy)
}

func (s *Server) handleDeleteVacancy(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.vacancies.DeleteVacancy(r.Context(), id); err != nil {
		s.internalError(w, "failed to delete vacancy", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.templates.ListTemplates(r.Context())
	if err != nil {
		s.internalError(w, "failed to list templates", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, templates)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := s.templates.GetTemplateByName(r.Context(), r.PathValue("name"))
	if err != nil {
		s.internalError(w, "failed to load template", err)
		return
	}
	if template == nil {
		s.errorResponse(w, http.StatusNotFound, "template not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, template)
}

// handleUpsertTemplate creates or replaces a template by name and invalidates
// the resolver cache so the edit takes effect on the next turn.
func (s *Server) handleUpsertTemplate(w http.ResponseWriter, r *http.Request) {
	var input db.PromptTemplateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Name == "" || input.Template == "" {
		s.errorResponse(w, http.StatusUnprocessableEntity, "name and template are required")
		return
	}

	template, err := s.templates.UpsertTemplate(r.Context(), &input)
	if err != nil {
		s.internalError(w, "failed to save template", err)
		return
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	s.jsonResponse(w, http.StatusOK, template)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := s.templates.DeleteTemplate(r.Context(), id); err != nil {
		s.internalError(w, "failed to delete template", err)
		return
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	evaluations, err := s.evaluations.ListEvaluationsByVacancy(r.Context(), id)
	if err != nil {
		s.internalError(w, "failed to list evaluations", err)
		return
	}
	s.jsonResponse(w, http.StatusOK, evaluations)
}

func (s *Server) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	evaluation, err := s.evaluations.GetEvaluationByID(r.Context(), id)
	if err != nil {
		s.internalError(w, "failed to load evaluation", err)
		return
	}
	if evaluation == nil {
		s.errorResponse(w, http.StatusNotFound, "evaluation not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, evaluation)
}

// handleGetEvaluationByPair looks an evaluation up by ?candidate_id=&vacancy_id=.
func (s *Server) handleGetEvaluationByPair(w http.ResponseWriter, r *http.Request) {
	candidateID, err := uuid.Parse(r.URL.Query().Get("candidate_id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid candidate_id")
		return
	}
	vacancyID, err := uuid.Parse(r.URL.Query().Get("vacancy_id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid vacancy_id")
		return
	}

	evaluation, err := s.evaluations.GetEvaluation(r.Context(), candidateID, vacancyID)
	if err != nil {
		s.internalError(w, "failed to load evaluation", err)
		return
	}
	if evaluation == nil {
		s.errorResponse(w, http.StatusNotFound, "evaluation not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, evaluation)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "id")
	if !ok {
		return
	}
	candidate, err := s.candidates.GetCandidate(r.Context(), id)
	if err != nil {
		s.internalError(w, "failed to load candidate", err)
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "candidate not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, candidate)
}

// handleGetCandidateByExternalID looks a candidate up by ?external_id=, the
// messenger-side identity admins actually have at hand.
func (s *Server) handleGetCandidateByExternalID(w http.ResponseWriter, r *http.Request) {
	externalID, err := strconv.ParseInt(r.URL.Query().Get("external_id"), 10, 64)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid external_id")
		return
	}
	candidate, err := s.candidates.GetCandidateByExternalID(r.Context(), externalID)
	if err != nil {
		s.internalError(w, "failed to load candidate", err)
		return
	}
	if candidate == nil {
		s.errorResponse(w, http.StatusNotFound, "candidate not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, candidate)
}

func (s *Server) internalError(w http.ResponseWriter, message string, err error) {
	s.log.Error(message, zap.Error(err))
	s.errorResponse(w, http.StatusInternalServerError, message)
}
