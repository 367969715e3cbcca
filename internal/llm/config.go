package llm

// ModelTier represents the capability level requested for a call. The
// interview loop uses the standard tier for question turns and the advanced
// tier for transcript analysis and final feedback.
type ModelTier string

const (
	// TierLite is for cheap calls: short replies, classification.
	TierLite ModelTier = "lite"
	// TierStandard is for question generation during the interview.
	TierStandard ModelTier = "standard"
	// TierAdvanced is for transcript analysis and final feedback.
	TierAdvanced ModelTier = "advanced"
)

// Config maps tiers to concrete model names.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// Model returns the model name for a tier, falling back to standard, then
// lite, when the tier is not configured.
func (c *Config) Model(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}
