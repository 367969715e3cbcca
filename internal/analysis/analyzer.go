package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/llm"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/logger"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/prompts"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/schemas"
)

// minMatchConfidence is the extraction confidence below which a skill does
// not count toward requirement matching.
const minMatchConfidence = 0.5

// Analyzer turns a finished interview transcript into structured Data via one
// model call. Model output is schema-validated before any field is used.
type Analyzer struct {
	model    llm.Client
	resolver *prompts.Resolver
	log      *zap.Logger
}

// NewAnalyzer builds an analyzer over the given model client and prompt
// resolver.
func NewAnalyzer(model llm.Client, resolver *prompts.Resolver, log *zap.Logger) *Analyzer {
	return &Analyzer{model: model, resolver: resolver, log: logger.Safe(log)}
}

// Analyze extracts structured signals from the transcript for one vacancy.
// Malformed model output is a recoverable error: nothing is persisted and the
// caller may retry.
func (a *Analyzer) Analyze(ctx context.Context, transcript string, vacancy *db.Vacancy) (*Data, error) {
	prompt := a.resolver.RenderNamed(ctx, prompts.NameCandidateAnalysis, map[string]any{
		"vacancy_title": vacancy.Title,
		"requirements":  FormatRequirements(vacancy.Requirements),
		"transcript":    transcript,
	})

	raw, err := a.model.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, fmt.Errorf("analysis model call failed: %w", err)
	}

	a.log.Debug("analysis response received",
		zap.String("response", logger.TruncateForLog(raw, 300)))

	if err := schemas.Validate(schemas.Analysis, []byte(raw)); err != nil {
		return nil, fmt.Errorf("analysis output rejected: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("analysis output rejected: %w", err)
	}

	// Matching is computed here, deterministically, never taken from the
	// model.
	data.Matching = MatchSkills(data.Skills, vacancy.Requirements)
	return &data, nil
}

// MatchSkills compares extracted skills against the vacancy's skill
// requirements. A requirement matches when a confidently extracted skill name
// equals or contains it after normalization.
func MatchSkills(extracted []ExtractedSkill, reqs db.Requirements) []SkillMatch {
	matches := make([]SkillMatch, 0, len(reqs.Skills))
	for _, req := range reqs.Skills {
		match := SkillMatch{
			Skill:     req.Name,
			Mandatory: req.Mandatory,
			Weight:    req.Weight,
		}
		normalizedReq := normalizeSkill(req.Name)
		for _, skill := range extracted {
			if skill.Confidence < minMatchConfidence {
				continue
			}
			normalized := normalizeSkill(skill.Name)
			if normalized == normalizedReq ||
				strings.Contains(normalized, normalizedReq) ||
				strings.Contains(normalizedReq, normalized) {
				match.Matched = true
				match.Confidence = skill.Confidence
				break
			}
		}
		matches = append(matches, match)
	}
	return matches
}

// FormatRequirements renders a vacancy's requirements as the plain-text block
// substituted into analysis and question prompts.
func FormatRequirements(reqs db.Requirements) string {
	var sb strings.Builder

	for _, s := range reqs.Skills {
		kind := "optional"
		if s.Mandatory {
			kind = "mandatory"
		}
		fmt.Fprintf(&sb, "- %s (%s, %s, weight %d)\n", s.Name, s.Level, kind, s.Weight)
	}
	for _, e := range reqs.Experience {
		pref := ""
		if e.Preferred {
			pref = ", preferred"
		}
		fmt.Fprintf(&sb, "- %d+ years in %s%s\n", e.MinYears, e.Domain, pref)
	}
	for _, l := range reqs.Languages {
		if l.Level != "" {
			fmt.Fprintf(&sb, "- language: %s (%s)\n", l.Language, l.Level)
		} else {
			fmt.Fprintf(&sb, "- language: %s\n", l.Language)
		}
	}
	if len(reqs.SoftSkills) > 0 {
		fmt.Fprintf(&sb, "- soft skills: %s\n", strings.Join(reqs.SoftSkills, ", "))
	}

	return strings.TrimRight(sb.String(), "\n")
}

func normalizeSkill(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
