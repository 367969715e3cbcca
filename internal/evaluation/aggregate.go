// Package evaluation converts structured interview analysis into the
// deterministic weighted scores and the categorical hiring recommendation.
// Inputs are assumed validated: the vacancy layer guarantees the weights sum
// to 100 before anything is persisted.
package evaluation

import (
	"math"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/analysis"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
)

// Thresholds are the configurable overall-score cut lines for the
// recommendation. Proceed at or above Proceed; reject below Reject.
type Thresholds struct {
	Proceed int
	Reject  int
}

// Result is the aggregated outcome for one interview.
type Result struct {
	Overall        int
	Technical      int
	Communication  int
	ProblemSolving int
	Recommendation string
}

// Aggregate combines the analysis into category scores, the weight-normalized
// overall score and a recommendation. For weights summing to 100 and in-range
// inputs, Overall is guaranteed to land in [0,100].
func Aggregate(data *analysis.Data, weights db.EvaluationWeights, thresholds Thresholds) Result {
	technical := technicalScore(data.Matching)
	communication := communicationScore(data.Communication)
	problemSolving := problemSolvingScore(data)

	overall := float64(technical)*float64(weights.TechnicalSkills)/100 +
		float64(communication)*float64(weights.Communication)/100 +
		float64(problemSolving)*float64(weights.ProblemSolving)/100

	result := Result{
		Overall:        clampScore(int(math.Round(overall))),
		Technical:      technical,
		Communication:  communication,
		ProblemSolving: problemSolving,
	}
	result.Recommendation = recommend(result.Overall, data, thresholds)
	return result
}

// technicalScore is the weight-normalized fraction of mandatory skills
// matched, scaled to 0-100. When the vacancy declares no mandatory skills,
// all requirements count.
func technicalScore(matching []analysis.SkillMatch) int {
	mandatory := make([]analysis.SkillMatch, 0, len(matching))
	for _, m := range matching {
		if m.Mandatory {
			mandatory = append(mandatory, m)
		}
	}
	if len(mandatory) == 0 {
		mandatory = matching
	}
	return matchedFraction(mandatory)
}

// communicationScore averages the four 1-10 sub-metrics and scales to 0-100.
func communicationScore(m analysis.CommunicationMetrics) int {
	return clampScore(int(math.Round(m.Average() * 10)))
}

// problemSolvingScore is the weight-normalized match fraction across all
// requirements, discounted by high-severity red flags. The original system
// folds problem-solving evidence into overall requirement coverage; that
// derivation is kept here.
func problemSolvingScore(data *analysis.Data) int {
	score := matchedFraction(data.Matching)
	if data.HasHighRedFlag() && score > 0 {
		score = score * 3 / 4
	}
	return score
}

// matchedFraction returns matched weight over total weight, scaled 0-100.
// Requirements with no weight set count as weight 1.
func matchedFraction(matching []analysis.SkillMatch) int {
	if len(matching) == 0 {
		return 0
	}
	total, matched := 0, 0
	for _, m := range matching {
		weight := m.Weight
		if weight <= 0 {
			weight = 1
		}
		total += weight
		if m.Matched {
			matched += weight
		}
	}
	if total == 0 {
		return 0
	}
	return clampScore(int(math.Round(float64(matched) / float64(total) * 100)))
}

// recommend derives the categorical hiring signal. A high-severity red flag
// blocks proceed; a high-severity red flag together with unresolved
// contradictions forces reject regardless of score.
func recommend(overall int, data *analysis.Data, t Thresholds) string {
	highFlag := data.HasHighRedFlag()

	if overall < t.Reject || (highFlag && len(data.Contradictions) > 0) {
		return db.RecommendationReject
	}
	if overall >= t.Proceed && !highFlag {
		return db.RecommendationProceed
	}
	return db.RecommendationClarify
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
