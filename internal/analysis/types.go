// Package analysis extracts structured candidate signals from an interview
// transcript via the model endpoint.
package analysis

// Red flag severity levels.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// ExtractedSkill is a skill the model found evidence for in the transcript.
type ExtractedSkill struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"` // 0-1
	Evidence   string  `json:"evidence,omitempty"`
}

// CommunicationMetrics are the four per-interview communication sub-scores,
// each on a 1-10 scale.
type CommunicationMetrics struct {
	Clarity        int `json:"clarity"`
	Structure      int `json:"structure"`
	Vocabulary     int `json:"vocabulary"`
	Responsiveness int `json:"responsiveness"`
}

// Average returns the mean of the four metrics.
func (m CommunicationMetrics) Average() float64 {
	return float64(m.Clarity+m.Structure+m.Vocabulary+m.Responsiveness) / 4.0
}

// RedFlag is an inconsistency or concern flagged in candidate responses.
type RedFlag struct {
	Description string `json:"description"`
	Severity    string `json:"severity"` // low, medium, high
}

// SkillMatch records whether one vacancy skill requirement was matched by the
// candidate. Matching is computed deterministically from extracted skills, not
// taken from the model.
type SkillMatch struct {
	Skill      string  `json:"skill"`
	Mandatory  bool    `json:"mandatory"`
	Weight     int     `json:"weight"` // 1-10, from the vacancy requirement
	Matched    bool    `json:"matched"`
	Confidence float64 `json:"confidence,omitempty"` // confidence of the matching extracted skill
}

// Data is the structured analysis of one completed interview. It is stored
// verbatim inside the Evaluation record.
type Data struct {
	Skills        []ExtractedSkill     `json:"skills"`
	Experience    string               `json:"experience,omitempty"`
	Communication CommunicationMetrics `json:"communication"`
	RedFlags      []RedFlag            `json:"red_flags,omitempty"`
	Matching      []SkillMatch         `json:"matching,omitempty"`

	Contradictions []string `json:"contradictions,omitempty"`
	Strengths      []string `json:"strengths,omitempty"`
	Gaps           []string `json:"gaps,omitempty"`
}

// HasHighRedFlag reports whether any red flag carries high severity.
func (d *Data) HasHighRedFlag() bool {
	for _, f := range d.RedFlags {
		if f.Severity == SeverityHigh {
			return true
		}
	}
	return false
}
