// Package history is the dual-layer conversation log: a per-candidate
// in-memory cache backed by the durable dialogue table. Durable outages
// degrade the store to cache-only rather than failing the conversation.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/logger"
)

// DurableLog is the slice of the durable store the history layer needs.
// *db.DB satisfies it; tests inject an in-memory fake.
type DurableLog interface {
	InsertDialogue(ctx context.Context, entry *db.DialogueEntry) error
	ListDialogues(ctx context.Context, candidateID uuid.UUID, vacancyID *uuid.UUID, limit int) ([]db.DialogueEntry, error)
	DeleteDialogues(ctx context.Context, candidateID uuid.UUID, vacancyID *uuid.UUID) error
	UpsertCandidate(ctx context.Context, input db.CandidateInput) (*db.Candidate, error)
}

// DegradedError reports that an entry reached the cache but not the durable
// log. The conversation can continue in-memory-only for that turn; the caller
// owns retry and alerting policy.
type DegradedError struct {
	Err error
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("durable write failed, entry kept in cache only: %v", e.Err)
}

func (e *DegradedError) Unwrap() error {
	return e.Err
}

// Store owns conversation persistence for the interview core.
type Store struct {
	durable DurableLog
	cache   *memoryCache
	log     *zap.Logger
}

// NewStore builds a history store over the given durable log.
func NewStore(durable DurableLog, log *zap.Logger) *Store {
	return &Store{
		durable: durable,
		cache:   newMemoryCache(),
		log:     logger.Safe(log),
	}
}

// EnsureCandidate creates the candidate record on first contact, or enriches
// the display-name fields of a known one. Idempotent per external user id; a
// candidate must exist before any entry referencing it is appended.
func (s *Store) EnsureCandidate(ctx context.Context, input db.CandidateInput) (*db.Candidate, error) {
	candidate, err := s.durable.UpsertCandidate(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure candidate: %w", err)
	}
	return candidate, nil
}

// Append adds one entry to the cache and the durable log. A durable failure
// is reported as a non-fatal *DegradedError: the cache write has already
// succeeded and the conversation continues.
func (s *Store) Append(ctx context.Context, entry db.DialogueEntry) error {
	s.cache.append(entry.CandidateID, entry)

	if err := s.durable.InsertDialogue(ctx, &entry); err != nil {
		s.log.Warn("dialogue entry kept in cache only",
			logger.Candidate(entry.CandidateID),
			logger.Vacancy(entry.VacancyID),
			zap.Error(err))
		return &DegradedError{Err: err}
	}
	return nil
}

// History returns the entries for a candidate, oldest first, at most limit
// entries (0 means no limit). The cache is authoritative when no vacancy
// filter is requested and the key is warm; otherwise the durable log is the
// source of truth and an unfiltered read refreshes the cache as a side
// effect.
func (s *Store) History(ctx context.Context, candidateID uuid.UUID, vacancyID *uuid.UUID, limit int) ([]db.DialogueEntry, error) {
	if vacancyID == nil {
		if entries, ok := s.cache.get(candidateID); ok {
			return tail(entries, limit), nil
		}
	}

	entries, err := s.durable.ListDialogues(ctx, candidateID, vacancyID, limit)
	if err != nil {
		// Degrade to whatever the cache holds rather than losing the turn.
		if cached, ok := s.cache.get(candidateID); ok {
			s.log.Warn("durable history read failed, serving cache",
				logger.Candidate(candidateID), zap.Error(err))
			return tail(filterVacancy(cached, vacancyID), limit), nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	if vacancyID == nil {
		s.cache.replace(candidateID, entries)
	}
	return entries, nil
}

// Clear removes the cache entry and deletes matching durable rows.
// Idempotent: clearing an absent key is a no-op.
func (s *Store) Clear(ctx context.Context, candidateID uuid.UUID, vacancyID *uuid.UUID) error {
	if vacancyID == nil {
		s.cache.drop(candidateID)
	} else {
		// A vacancy-scoped clear invalidates the mixed cache stream.
		s.cache.drop(candidateID)
	}

	if err := s.durable.DeleteDialogues(ctx, candidateID, vacancyID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// ContextSummary renders the last maxMessages turns as a role-tagged
// transcript, one line per turn, joined by newlines. Used verbatim as a
// prompt-substitution value.
func (s *Store) ContextSummary(ctx context.Context, candidateID uuid.UUID, maxMessages int, vacancyID *uuid.UUID) (string, error) {
	entries, err := s.History(ctx, candidateID, vacancyID, maxMessages)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		role := "Candidate"
		if e.Sender == db.SenderBot {
			role = "Bot"
		}
		content := e.Content
		if e.Transcription != nil && *e.Transcription != "" {
			content = *e.Transcription
		}
		lines = append(lines, role+": "+content)
	}
	return strings.Join(lines, "\n"), nil
}

// tail returns at most limit entries from the end, preserving order.
func tail(entries []db.DialogueEntry, limit int) []db.DialogueEntry {
	if limit > 0 && len(entries) > limit {
		return entries[len(entries)-limit:]
	}
	return entries
}

func filterVacancy(entries []db.DialogueEntry, vacancyID *uuid.UUID) []db.DialogueEntry {
	if vacancyID == nil {
		return entries
	}
	var out []db.DialogueEntry
	for _, e := range entries {
		if e.VacancyID != nil && *e.VacancyID == *vacancyID {
			out = append(out, e)
		}
	}
	return out
}
