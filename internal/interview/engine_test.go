package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/analysis"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/evaluation"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/history"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/llm"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/prompts"
)

// scriptedModel pops queued JSON replies in order. GenerateContent always
// fails so menu turns exercise the static fallback.
type scriptedModel struct {
	mu      sync.Mutex
	replies []string
	errs    []error
}

func (m *scriptedModel) push(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, reply)
	m.errs = append(m.errs, nil)
}

func (m *scriptedModel) pushErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, "")
	m.errs = append(m.errs, err)
}

func (m *scriptedModel) GenerateContent(context.Context, string, llm.ModelTier) (string, error) {
	return "", errors.New("model unavailable")
}

func (m *scriptedModel) GenerateJSON(context.Context, string, llm.ModelTier) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	reply, err := m.replies[0], m.errs[0]
	m.replies, m.errs = m.replies[1:], m.errs[1:]
	return reply, err
}

func (m *scriptedModel) Close() error { return nil }

type fakeDurable struct {
	mu         sync.Mutex
	candidates map[int64]*db.Candidate
	entries    []db.DialogueEntry
	insertErr  error
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{candidates: make(map[int64]*db.Candidate)}
}

func (f *fakeDurable) UpsertCandidate(_ context.Context, input db.CandidateInput) (*db.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.candidates[input.ExternalID]; ok {
		copied := *c
		return &copied, nil
	}
	c := &db.Candidate{
		ID:         uuid.New(),
		ExternalID: input.ExternalID,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Username:   input.Username,
		CreatedAt:  time.Now().UTC(),
	}
	f.candidates[input.ExternalID] = c
	copied := *c
	return &copied, nil
}

func (f *fakeDurable) InsertDialogue(_ context.Context, entry *db.DialogueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeDurable) ListDialogues(_ context.Context, candidateID uuid.UUID, vacancyID *uuid.UUID, limit int) ([]db.DialogueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeDurable) DeleteDialogues(_ context.Context, candidateID uuid.UUID, vacancyID *uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []db.DialogueEntry
	for _, e := range f.entries {
		if e.CandidateID == candidateID && (vacancyID == nil || (e.VacancyID != nil && *e.VacancyID == *vacancyID)) {
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return nil
}

func (f *fakeDurable) entryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type fakeStates struct {
	mu     sync.Mutex
	states []*db.InterviewState
}

func (f *fakeStates) ActiveInterviewState(_ context.Context, candidateID uuid.UUID) (*db.InterviewState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.states) - 1; i >= 0; i-- {
		s := f.states[i]
		if s.CandidateID == candidateID && !s.Terminal() {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStates) LatestInterviewState(_ context.Context, candidateID uuid.UUID) (*db.InterviewState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.states) - 1; i >= 0; i-- {
		if f.states[i].CandidateID == candidateID {
			copied := *f.states[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStates) GetInterviewState(_ context.Context, candidateID, vacancyID uuid.UUID) (*db.InterviewState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.states) - 1; i >= 0; i-- {
		s := f.states[i]
		if s.CandidateID == candidateID && s.VacancyID != nil && *s.VacancyID == vacancyID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStates) CreateInterviewState(_ context.Context, candidateID, vacancyID uuid.UUID) (*db.InterviewState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vid := vacancyID
	s := &db.InterviewState{
		ID:          uuid.New(),
		CandidateID: candidateID,
		VacancyID:   &vid,
		Stage:       db.StageInterviewing,
		CreatedAt:   time.Now().UTC(),
	}
	f.states = append(f.states, s)
	copied := *s
	return &copied, nil
}

func (f *fakeStates) SaveInterviewState(_ context.Context, state *db.InterviewState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.states {
		if s.ID == state.ID {
			if s.Terminal() {
				return fmt.Errorf("interview state %s is completed or missing", state.ID)
			}
			s.Stage = state.Stage
			s.QuestionCount = state.QuestionCount
			s.LastActivity = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("interview state %s is completed or missing", state.ID)
}

func (f *fakeStates) latest(candidateID uuid.UUID) *db.InterviewState {
	s, _ := f.LatestInterviewState(context.Background(), candidateID)
	return s
}

func (f *fakeStates) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.states)
}

type fakeVacancies struct {
	open []db.Vacancy
}

func (f *fakeVacancies) ListActiveVacancies(context.Context) ([]db.Vacancy, error) {
	return f.open, nil
}

func (f *fakeVacancies) GetVacancy(_ context.Context, id uuid.UUID) (*db.Vacancy, error) {
	for i := range f.open {
		if f.open[i].ID == id {
			copied := f.open[i]
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeEvals struct {
	mu     sync.Mutex
	inputs []*db.EvaluationInput
}

func (f *fakeEvals) UpsertEvaluation(_ context.Context, input *db.EvaluationInput) (*db.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, input)
	return &db.Evaluation{
		ID:          uuid.New(),
		CandidateID: input.CandidateID,
		VacancyID:   input.VacancyID,
	}, nil
}

func (f *fakeEvals) last() *db.EvaluationInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return nil
	}
	return f.inputs[len(f.inputs)-1]
}

func (f *fakeEvals) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

type emptyTemplateSource struct{}

func (emptyTemplateSource) ListActiveTemplates(context.Context) ([]db.PromptTemplate, error) {
	return nil, nil
}

type testHarness struct {
	engine    *Engine
	model     *scriptedModel
	durable   *fakeDurable
	states    *fakeStates
	vacancies *fakeVacancies
	evals     *fakeEvals
}

func newHarness(t *testing.T, questionLimit int) *testHarness {
	t.Helper()

	goID := uuid.New()
	pyID := uuid.New()
	vacancies := &fakeVacancies{open: []db.Vacancy{
		{
			ID:    goID,
			Title: "Go Developer",
			Requirements: db.Requirements{
				Skills: []db.SkillRequirement{
					{Name: "Go", Level: db.LevelIntermediate, Mandatory: true, Weight: 5},
				},
			},
			Weights: db.EvaluationWeights{TechnicalSkills: 50, Communication: 30, ProblemSolving: 20},
			Active:  true,
		},
		{
			ID:      pyID,
			Title:   "Data Engineer",
			Weights: db.EvaluationWeights{TechnicalSkills: 40, Communication: 30, ProblemSolving: 30},
			Active:  true,
		},
	}}

	model := &scriptedModel{}
	durable := newFakeDurable()
	states := &fakeStates{}
	evals := &fakeEvals{}
	hist := history.NewStore(durable, nil)
	resolver := prompts.NewResolver(emptyTemplateSource{}, time.Minute, nil)
	analyzer := analysis.NewAnalyzer(model, resolver, nil)

	engine := NewEngine(states, vacancies, evals, hist, resolver, model, analyzer, nil, Options{
		QuestionLimit: questionLimit,
		HistoryWindow: 20,
		Thresholds:    evaluation.Thresholds{Proceed: 75, Reject: 40},
	})
	return &testHarness{
		engine:    engine,
		model:     model,
		durable:   durable,
		states:    states,
		vacancies: vacancies,
		evals:     evals,
	}
}

func candidateMessage(text string) Message {
	return Message{ExternalUserID: 4242, FirstName: "Ann", Username: "ann_dev", Text: text}
}

func questionJSON(n int) string {
	return fmt.Sprintf(`{"type": "question", "question": "Question %d?", "topic": "go"}`, n)
}

const feedbackJSON = `{"type": "feedback", "feedback": "Thanks for your time, the team will follow up.", "strengths": ["clear answers"], "gaps": []}`

const analysisJSON = `{
	"skills": [{"name": "go", "confidence": 0.9, "evidence": "I ship Go services daily"}],
	"experience": "5 years of backend work",
	"communication": {"clarity": 8, "structure": 7, "vocabulary": 8, "responsiveness": 9},
	"red_flags": [],
	"contradictions": [],
	"strengths": ["solid Go background"],
	"gaps": ["no Kubernetes exposure"]
}`

func TestEngineFullInterviewLifecycle(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()

	// No vacancy picked yet: the reply is the selection menu.
	reply, err := h.engine.HandleMessage(ctx, candidateMessage("hello"))
	require.NoError(t, err)
	assert.Contains(t, reply, "1. Go Developer")
	assert.Contains(t, reply, "2. Data Engineer")

	// Picking by number starts the interview with question one.
	h.model.push(questionJSON(1))
	reply, err = h.engine.HandleMessage(ctx, candidateMessage("1"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Question 1?")

	candidateID := h.states.states[0].CandidateID
	state := h.states.latest(candidateID)
	require.NotNil(t, state)
	assert.Equal(t, db.StageInterviewing, state.Stage)
	assert.Equal(t, 0, state.QuestionCount)

	// Two answers, two more questions, one counter increment each.
	for n := 2; n <= 3; n++ {
		h.model.push(questionJSON(n))
		reply, err = h.engine.HandleMessage(ctx, candidateMessage("my answer"))
		require.NoError(t, err)
		assert.Contains(t, reply, fmt.Sprintf("Question %d?", n))
		assert.Equal(t, n-1, h.states.latest(candidateID).QuestionCount)
	}

	// The final answer triggers feedback, analysis and the evaluation upsert.
	h.model.push(feedbackJSON)
	h.model.push(analysisJSON)
	reply, err = h.engine.HandleMessage(ctx, candidateMessage("my last answer"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Thanks for your time")

	state = h.states.latest(candidateID)
	assert.Equal(t, db.StageCompleted, state.Stage)
	assert.Equal(t, 3, state.QuestionCount)

	eval := h.evals.last()
	require.NotNil(t, eval)
	assert.Equal(t, 100, eval.TechnicalScore)
	assert.Equal(t, 80, eval.CommunicationScore)
	assert.Equal(t, 100, eval.ProblemSolvingScore)
	assert.Equal(t, 94, eval.OverallScore)
	assert.Equal(t, db.RecommendationProceed, eval.Recommendation)
	assert.Equal(t, "Thanks for your time, the team will follow up.", eval.Feedback)

	// The raw analysis rides along as JSON and round-trips intact.
	var stored analysis.Data
	require.NoError(t, json.Unmarshal(eval.Analysis, &stored))
	require.Len(t, stored.Skills, 1)
	assert.Equal(t, "go", stored.Skills[0].Name)
	assert.Equal(t, []string{"solid Go background"}, stored.Strengths)

	// Messages after completion get the closing reply and change nothing.
	entriesBefore := h.durable.entryCount()
	reply, err = h.engine.HandleMessage(ctx, candidateMessage("anything else?"))
	require.NoError(t, err)
	assert.Contains(t, reply, "already finished")
	assert.Contains(t, reply, "Go Developer")
	assert.Equal(t, entriesBefore, h.durable.entryCount())
	assert.Equal(t, 1, h.evals.count())
	assert.Equal(t, db.StageCompleted, h.states.latest(candidateID).Stage)
}

func TestEngineModelFailureLeavesCounterUntouched(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()

	h.model.push(questionJSON(1))
	_, err := h.engine.HandleMessage(ctx, candidateMessage("go developer"))
	require.NoError(t, err)

	candidateID := h.states.states[0].CandidateID

	h.model.push(questionJSON(2))
	_, err = h.engine.HandleMessage(ctx, candidateMessage("answer one"))
	require.NoError(t, err)
	h.model.push(questionJSON(3))
	_, err = h.engine.HandleMessage(ctx, candidateMessage("answer two"))
	require.NoError(t, err)
	require.Equal(t, 2, h.states.latest(candidateID).QuestionCount)

	entriesBefore := h.durable.entryCount()

	// Garbage model output at question three: recoverable, no advancement and
	// no transcript entries.
	h.model.push("this is not json")
	_, err = h.engine.HandleMessage(ctx, candidateMessage("answer three"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelOutput)
	assert.Equal(t, 2, h.states.latest(candidateID).QuestionCount)
	assert.Equal(t, db.StageInterviewing, h.states.latest(candidateID).Stage)
	assert.Equal(t, entriesBefore, h.durable.entryCount())

	// A transport failure is equally non-advancing.
	h.model.pushErr(errors.New("deadline exceeded"))
	_, err = h.engine.HandleMessage(ctx, candidateMessage("answer three"))
	require.Error(t, err)
	assert.Equal(t, 2, h.states.latest(candidateID).QuestionCount)
	assert.Equal(t, entriesBefore, h.durable.entryCount())

	// The retry with a healthy model proceeds normally, recording the answer
	// exactly once.
	h.model.push(questionJSON(4))
	reply, err := h.engine.HandleMessage(ctx, candidateMessage("answer three"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Question 4?")
	assert.Equal(t, 3, h.states.latest(candidateID).QuestionCount)
	assert.Equal(t, entriesBefore+2, h.durable.entryCount())
}

func TestEngineFeedbackFailureIsRetryable(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	h.model.push(questionJSON(1))
	_, err := h.engine.HandleMessage(ctx, candidateMessage("1"))
	require.NoError(t, err)
	candidateID := h.states.states[0].CandidateID

	// Feedback parses but the analysis output is rejected: nothing persists.
	entriesBefore := h.durable.entryCount()
	h.model.push(feedbackJSON)
	h.model.push(`{"bogus": true}`)
	_, err = h.engine.HandleMessage(ctx, candidateMessage("my answer"))
	require.Error(t, err)
	assert.Equal(t, 0, h.evals.count())
	assert.Equal(t, entriesBefore, h.durable.entryCount())
	assert.Equal(t, db.StageInterviewing, h.states.latest(candidateID).Stage)
	assert.Equal(t, 0, h.states.latest(candidateID).QuestionCount)

	h.model.push(feedbackJSON)
	h.model.push(analysisJSON)
	_, err = h.engine.HandleMessage(ctx, candidateMessage("my answer"))
	require.NoError(t, err)
	assert.Equal(t, 1, h.evals.count())
	assert.Equal(t, db.StageCompleted, h.states.latest(candidateID).Stage)
}

func TestEngineFailedOpeningTurnLeavesSelection(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()

	// The first question never parses: no state, no transcript entries, the
	// candidate is still in selection.
	h.model.push("not json at all")
	_, err := h.engine.HandleMessage(ctx, candidateMessage("1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelOutput)
	assert.Equal(t, 0, h.states.count())
	assert.Equal(t, 0, h.durable.entryCount())

	// Resending the selection starts the interview at question one.
	h.model.push(questionJSON(1))
	reply, err := h.engine.HandleMessage(ctx, candidateMessage("1"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Question 1?")
	require.Equal(t, 1, h.states.count())

	candidateID := h.states.states[0].CandidateID
	state := h.states.latest(candidateID)
	assert.Equal(t, db.StageInterviewing, state.Stage)
	assert.Equal(t, 0, state.QuestionCount)
	assert.Equal(t, 2, h.durable.entryCount())
}

func TestEngineDurableOutageDoesNotBlockInterview(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()

	h.model.push(questionJSON(1))
	_, err := h.engine.HandleMessage(ctx, candidateMessage("1"))
	require.NoError(t, err)

	// Dialogue writes start failing; the turn still succeeds via the cache.
	h.durable.insertErr = errors.New("connection refused")
	h.model.push(questionJSON(2))
	reply, err := h.engine.HandleMessage(ctx, candidateMessage("cache-only answer"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Question 2?")
}

func TestEngineFinishedCandidateCanStartDifferentVacancy(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	h.model.push(questionJSON(1))
	_, err := h.engine.HandleMessage(ctx, candidateMessage("Go Developer"))
	require.NoError(t, err)
	h.model.push(feedbackJSON)
	h.model.push(analysisJSON)
	_, err = h.engine.HandleMessage(ctx, candidateMessage("done"))
	require.NoError(t, err)

	candidateID := h.states.states[0].CandidateID
	require.Equal(t, db.StageCompleted, h.states.latest(candidateID).Stage)

	// Naming the finished vacancy again only repeats the closing reply.
	reply, err := h.engine.HandleMessage(ctx, candidateMessage("Go Developer"))
	require.NoError(t, err)
	assert.Contains(t, reply, "already finished")

	// A different vacancy opens a fresh interview.
	h.model.push(questionJSON(1))
	reply, err = h.engine.HandleMessage(ctx, candidateMessage("Data Engineer"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Data Engineer")
	fresh := h.states.latest(candidateID)
	assert.Equal(t, db.StageInterviewing, fresh.Stage)
	assert.Equal(t, 0, fresh.QuestionCount)

	// Finish the second interview too. The first vacancy stays closed even
	// though it is no longer the latest state.
	h.model.push(feedbackJSON)
	h.model.push(analysisJSON)
	_, err = h.engine.HandleMessage(ctx, candidateMessage("done again"))
	require.NoError(t, err)
	require.Equal(t, db.StageCompleted, h.states.latest(candidateID).Stage)

	reply, err = h.engine.HandleMessage(ctx, candidateMessage("Go Developer"))
	require.NoError(t, err)
	assert.Contains(t, reply, "already finished")
	assert.Contains(t, reply, "Go Developer")
	assert.Equal(t, 2, h.states.count())
}

func TestMatchVacancy(t *testing.T) {
	open := []db.Vacancy{
		{ID: uuid.New(), Title: "Go Developer"},
		{ID: uuid.New(), Title: "Data Engineer"},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "menu number", text: "2", want: "Data Engineer"},
		{name: "number with spaces", text: " 1 ", want: "Go Developer"},
		{name: "exact title", text: "go developer", want: "Go Developer"},
		{name: "title inside sentence", text: "I want the Go Developer role", want: "Go Developer"},
		{name: "partial title", text: "data eng", want: "Data Engineer"},
		{name: "out of range number", text: "7", want: ""},
		{name: "unrelated text", text: "tell me more", want: ""},
		{name: "short noise", text: "go", want: ""},
		{name: "empty", text: "  ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchVacancy(open, tt.text)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Title)
		})
	}
}

func TestFormatVacancyMenu(t *testing.T) {
	assert.Contains(t, formatVacancyMenu(nil), "No open positions")

	menu := formatVacancyMenu([]db.Vacancy{
		{Title: "Go Developer", Description: "Backend services in Go"},
		{Title: "Data Engineer"},
	})
	lines := strings.Split(menu, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1. Go Developer - Backend services in Go", lines[0])
	assert.Equal(t, "2. Data Engineer", lines[1])
}
