package prompts

// Template names used by the interview engine.
const (
	NameVacancySelection  = "vacancy_selection"
	NameInterviewQuestion = "interview_question"
	NameInterviewFeedback = "interview_feedback"
	NameCandidateAnalysis = "candidate_analysis"
	NameAlreadyFinished   = "already_finished"
)

// NotConfigured is returned for a name with no database template and no
// compiled-in fallback. A degraded but always-available outcome.
const NotConfigured = "Prompt template is not configured."

// fallbacks are the compiled-in templates used when the database copy is
// missing, inactive or unreachable. They are also the seed source for the
// prompt_templates table (seed-templates command), so database defaults and
// fallbacks cannot drift apart.
var fallbacks = map[string]string{
	NameVacancySelection: `You are an HR assistant greeting a job candidate named {{candidate_name}}.
These vacancies are currently open:

{{vacancies}}

The candidate wrote: "{{message}}"

If the message clearly refers to one of the vacancies, you will be told separately.
Reply with a short friendly message listing the open vacancies by number and
asking the candidate to pick one.`,

	NameInterviewQuestion: `You are conducting a structured job interview for the position "{{vacancy_title}}".

Position requirements:
{{requirements}}

Conversation so far:
{{history}}

You are about to ask question {{question_number}} of {{total_questions}}.
Ask exactly one concise interview question probing the requirements above.
Do not repeat a topic already covered.

Return ONLY a JSON object: {"type": "question", "question": "<your question>", "topic": "<short topic tag>"}`,

	NameInterviewFeedback: `You are concluding a job interview for the position "{{vacancy_title}}" with {{candidate_name}}.

Full conversation:
{{history}}

Write warm, professional closing feedback for the candidate: thank them,
summarize 2-3 observations, and explain that the team will follow up.
Do not state a hiring decision.

Return ONLY a JSON object: {"type": "feedback", "feedback": "<your message>", "strengths": ["..."], "gaps": ["..."]}`,

	NameCandidateAnalysis: `You are an expert technical recruiter analyzing a finished interview for the position "{{vacancy_title}}".

Position requirements:
{{requirements}}

Interview transcript:
{{transcript}}

Extract structured signals from the transcript. For every skill, quote the
evidence verbatim. Rate the four communication metrics on a 1-10 scale.
Flag contradictions and concerns with a severity of low, medium or high.

Return ONLY a JSON object with this structure:
{
  "skills": [{"name": "...", "confidence": 0.0, "evidence": "..."}],
  "experience": "<summary of relevant experience>",
  "communication": {"clarity": 0, "structure": 0, "vocabulary": 0, "responsiveness": 0},
  "red_flags": [{"description": "...", "severity": "low|medium|high"}],
  "contradictions": ["..."],
  "strengths": ["..."],
  "gaps": ["..."]
}`,

	NameAlreadyFinished: `Thank you, {{candidate_name}}! Your interview for "{{vacancy_title}}" is already finished. The team is reviewing your answers and will get back to you.`,
}

// Fallback returns the compiled-in template for a name and whether one exists.
func Fallback(name string) (string, bool) {
	tpl, ok := fallbacks[name]
	return tpl, ok
}

// FallbackNames returns the names of all compiled-in templates, for seeding.
func FallbackNames() []string {
	names := make([]string, 0, len(fallbacks))
	for name := range fallbacks {
		names = append(names, name)
	}
	return names
}
