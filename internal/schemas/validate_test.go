package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuestion(t *testing.T) {
	assert.NoError(t, Validate(Question, []byte(`{"type":"question","question":"Tell me about Go."}`)))

	err := Validate(Question, []byte(`{"type":"question"}`))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, Question, ve.Schema)
	assert.NotEmpty(t, ve.Errors)
}

func TestValidateFeedback(t *testing.T) {
	assert.NoError(t, Validate(Feedback, []byte(`{"type":"feedback","feedback":"Solid answers.","strengths":["go"]}`)))
	assert.Error(t, Validate(Feedback, []byte(`{"type":"feedback","feedback":""}`)))
	assert.Error(t, Validate(Feedback, []byte(`{"type":"question","feedback":"x"}`)))
}

func TestValidateAnalysis(t *testing.T) {
	valid := `{
		"skills": [{"name": "Go", "confidence": 0.9, "evidence": "explained channels"}],
		"experience": "4 years backend",
		"communication": {"clarity": 7, "structure": 6, "vocabulary": 8, "responsiveness": 7},
		"red_flags": [{"description": "dates inconsistent", "severity": "medium"}]
	}`
	assert.NoError(t, Validate(Analysis, []byte(valid)))

	outOfRange := `{
		"skills": [],
		"communication": {"clarity": 11, "structure": 6, "vocabulary": 8, "responsiveness": 7}
	}`
	assert.Error(t, Validate(Analysis, []byte(outOfRange)))

	badSeverity := `{
		"skills": [],
		"communication": {"clarity": 5, "structure": 5, "vocabulary": 5, "responsiveness": 5},
		"red_flags": [{"description": "x", "severity": "catastrophic"}]
	}`
	assert.Error(t, Validate(Analysis, []byte(badSeverity)))
}

func TestValidateNotJSON(t *testing.T) {
	err := Validate(Question, []byte(`not json at all`))
	assert.Error(t, err)

	var ve *ValidationError
	assert.False(t, errors.As(err, &ve), "malformed JSON is not a field violation")
}

func TestValidateUnknownSchema(t *testing.T) {
	assert.Error(t, Validate("nope", []byte(`{}`)))
}
