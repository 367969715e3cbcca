package db

// Interview stages for a (candidate, vacancy) pair. Completed is terminal.
const (
	StageSelectingVacancy = "selecting_vacancy"
	StageInterviewing     = "interviewing"
	StageCompleted        = "completed"
)

// Dialogue message kinds.
const (
	MessageKindText     = "text"
	MessageKindAudio    = "audio"
	MessageKindSystem   = "system"
	MessageKindDocument = "document"
)

// Dialogue senders.
const (
	SenderCandidate = "candidate"
	SenderBot       = "bot"
)

// Hiring recommendations derived from an evaluation.
const (
	RecommendationProceed = "proceed"
	RecommendationReject  = "reject"
	RecommendationClarify = "clarify"
)

// Skill proficiency levels used in vacancy requirements.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelExpert       = "expert"
)
