package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
)

// fakeDurable is an in-memory stand-in for the Postgres dialogue log.
type fakeDurable struct {
	entries    []db.DialogueEntry
	candidates map[int64]*db.Candidate

	insertErr error
	listErr   error
	deleteErr error
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{candidates: make(map[int64]*db.Candidate)}
}

func (f *fakeDurable) InsertDialogue(_ context.Context, entry *db.DialogueEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeDurable) ListDialogues(_ context.Context, candidateID uuid.UUID, vacancyID *uuid.UUID, limit int) ([]db.DialogueEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []db.DialogueEntry
	for _, e := range f.entries {
		if e.CandidateID != candidateID {
			continue
		}
		if vacancyID != nil && (e.VacancyID == nil || *e.VacancyID != *vacancyID) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeDurable) DeleteDialogues(_ context.Context, candidateID uuid.UUID, vacancyID *uuid.UUID) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	var kept []db.DialogueEntry
	for _, e := range f.entries {
		if e.CandidateID == candidateID {
			if vacancyID == nil || (e.VacancyID != nil && *e.VacancyID == *vacancyID) {
				continue
			}
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return nil
}

func (f *fakeDurable) UpsertCandidate(_ context.Context, input db.CandidateInput) (*db.Candidate, error) {
	if existing, ok := f.candidates[input.ExternalID]; ok {
		if input.FirstName != "" {
			existing.FirstName = input.FirstName
		}
		if input.LastName != "" {
			existing.LastName = input.LastName
		}
		if input.Username != "" {
			existing.Username = input.Username
		}
		return existing, nil
	}
	c := &db.Candidate{
		ID:         uuid.New(),
		ExternalID: input.ExternalID,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Username:   input.Username,
		CreatedAt:  time.Now(),
	}
	f.candidates[input.ExternalID] = c
	return c, nil
}

func entryAt(candidateID uuid.UUID, vacancyID *uuid.UUID, sender, content string, at time.Time) db.DialogueEntry {
	e := db.NewTextEntry(candidateID, vacancyID, sender, content)
	e.CreatedAt = at
	return e
}

func TestAppendAndHistoryOrdering(t *testing.T) {
	durable := newFakeDurable()
	store := NewStore(durable, nil)
	ctx := context.Background()
	candidateID := uuid.New()

	base := time.Unix(1000, 0)
	for i := 0; i < 4; i++ {
		e := entryAt(candidateID, nil, db.SenderCandidate, fmt.Sprintf("msg %d", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.Append(ctx, e))
	}

	entries, err := store.History(ctx, candidateID, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].CreatedAt.Before(entries[i-1].CreatedAt), "non-decreasing order")
	}

	limited, err := store.History(ctx, candidateID, nil, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "msg 2", limited[0].Content)
	assert.Equal(t, "msg 3", limited[1].Content)
}

func TestAppendDurableFailureDegrades(t *testing.T) {
	durable := newFakeDurable()
	durable.insertErr = errors.New("connection refused")
	store := NewStore(durable, nil)
	ctx := context.Background()
	candidateID := uuid.New()

	err := store.Append(ctx, db.NewTextEntry(candidateID, nil, db.SenderCandidate, "hello"))

	var degraded *DegradedError
	require.True(t, errors.As(err, &degraded), "failure is reported as non-fatal degradation")

	// The conversation continues from cache.
	entries, err := store.History(ctx, candidateID, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Content)
}

func TestHistoryVacancyFilterReadsDurable(t *testing.T) {
	durable := newFakeDurable()
	store := NewStore(durable, nil)
	ctx := context.Background()
	candidateID := uuid.New()
	vacancyA := uuid.New()
	vacancyB := uuid.New()

	base := time.Unix(1000, 0)
	require.NoError(t, store.Append(ctx, entryAt(candidateID, &vacancyA, db.SenderCandidate, "about A", base)))
	require.NoError(t, store.Append(ctx, entryAt(candidateID, &vacancyB, db.SenderCandidate, "about B", base.Add(time.Second))))

	filtered, err := store.History(ctx, candidateID, &vacancyA, 0)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "about A", filtered[0].Content)
}

func TestHistoryColdCacheRefreshes(t *testing.T) {
	durable := newFakeDurable()
	candidateID := uuid.New()
	base := time.Unix(1000, 0)
	durable.entries = []db.DialogueEntry{
		entryAt(candidateID, nil, db.SenderBot, "persisted earlier", base),
	}

	store := NewStore(durable, nil)
	ctx := context.Background()

	entries, err := store.History(ctx, candidateID, nil, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Cache is now warm: a durable outage no longer affects reads.
	durable.listErr = errors.New("connection refused")
	entries, err = store.History(ctx, candidateID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestClearIdempotent(t *testing.T) {
	durable := newFakeDurable()
	store := NewStore(durable, nil)
	ctx := context.Background()
	candidateID := uuid.New()

	require.NoError(t, store.Append(ctx, db.NewTextEntry(candidateID, nil, db.SenderCandidate, "hi")))
	require.NoError(t, store.Clear(ctx, candidateID, nil))

	entries, err := store.History(ctx, candidateID, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Clearing an absent key is a no-op, not an error.
	require.NoError(t, store.Clear(ctx, uuid.New(), nil))
}

func TestContextSummary(t *testing.T) {
	durable := newFakeDurable()
	store := NewStore(durable, nil)
	ctx := context.Background()
	candidateID := uuid.New()

	base := time.Unix(1000, 0)
	require.NoError(t, store.Append(ctx, entryAt(candidateID, nil, db.SenderBot, "What is Go?", base)))
	require.NoError(t, store.Append(ctx, entryAt(candidateID, nil, db.SenderCandidate, "A language.", base.Add(time.Second))))

	transcription := "spoken answer"
	audio := entryAt(candidateID, nil, db.SenderCandidate, "[audio]", base.Add(2*time.Second))
	audio.MessageKind = db.MessageKindAudio
	audio.Transcription = &transcription
	require.NoError(t, store.Append(ctx, audio))

	summary, err := store.ContextSummary(ctx, candidateID, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bot: What is Go?\nCandidate: A language.\nCandidate: spoken answer", summary)

	// Bounded by maxMessages.
	summary, err = store.ContextSummary(ctx, candidateID, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "Candidate: spoken answer", summary)
}

func TestEnsureCandidateIdempotent(t *testing.T) {
	durable := newFakeDurable()
	store := NewStore(durable, nil)
	ctx := context.Background()

	first, err := store.EnsureCandidate(ctx, db.CandidateInput{ExternalID: 42})
	require.NoError(t, err)

	second, err := store.EnsureCandidate(ctx, db.CandidateInput{ExternalID: 42, FirstName: "Ann"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "same external id resolves to the same candidate")
	assert.Equal(t, "Ann", second.FirstName, "display name enriched when learned")
}
