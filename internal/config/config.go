// Package config provides configuration loading and validation for the bot.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the bot configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via
// CLI flags or environment variables.
type Config struct {
	// Credentials and endpoints
	TelegramToken string `json:"telegram_token,omitempty"` // Telegram Bot API token
	GeminiAPIKey  string `json:"gemini_api_key,omitempty"` // Gemini API key
	DatabaseURL   string `json:"database_url,omitempty"`   // PostgreSQL connection URL

	// Admin API
	AdminPort int `json:"admin_port,omitempty"` // Port for the admin REST API (0 disables)

	// Interview behavior
	QuestionLimit  int `json:"question_limit,omitempty"`   // Questions asked before final feedback
	HistoryWindow  int `json:"history_window,omitempty"`   // Dialogue turns included in prompt context
	TemplateTTLSec int `json:"template_ttl_sec,omitempty"` // Prompt template cache TTL in seconds

	// Recommendation thresholds (0-100)
	ProceedThreshold int `json:"proceed_threshold,omitempty"` // Overall score at or above which we proceed
	RejectThreshold  int `json:"reject_threshold,omitempty"`  // Overall score below which we reject

	// Logging
	LogJSON bool `json:"log_json,omitempty"` // Emit JSON logs instead of console
	Verbose bool `json:"verbose,omitempty"`  // Enable debug-level logging
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		AdminPort:        8080,
		QuestionLimit:    5,
		HistoryWindow:    20,
		TemplateTTLSec:   300,
		ProceedThreshold: 75,
		RejectThreshold:  40,
	}
}

// TemplateTTL returns the template cache TTL as a duration.
func (c *Config) TemplateTTL() time.Duration {
	return time.Duration(c.TemplateTTLSec) * time.Second
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv fills credential fields from environment variables when unset.
// Environment never overrides an explicit config file value.
func (c *Config) FromEnv() {
	if c.TelegramToken == "" {
		c.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	}
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// Validate checks that the configuration has valid values.
// Credential presence is checked by the commands that need them, not here.
func (c *Config) Validate() error {
	if c.QuestionLimit < 1 {
		return fmt.Errorf("config error: 'question_limit' must be at least 1")
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("config error: 'history_window' must be at least 1")
	}
	if c.TemplateTTLSec < 0 {
		return fmt.Errorf("config error: 'template_ttl_sec' must be non-negative")
	}
	if c.RejectThreshold < 0 || c.RejectThreshold > 100 {
		return fmt.Errorf("config error: 'reject_threshold' must be in [0,100]")
	}
	if c.ProceedThreshold < 0 || c.ProceedThreshold > 100 {
		return fmt.Errorf("config error: 'proceed_threshold' must be in [0,100]")
	}
	if c.RejectThreshold > c.ProceedThreshold {
		return fmt.Errorf("config error: 'reject_threshold' must not exceed 'proceed_threshold'")
	}
	if c.AdminPort < 0 || c.AdminPort > 65535 {
		return fmt.Errorf("config error: 'admin_port' must be a valid port")
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from
// defaults. CLI flags should be applied after this merge so they always win.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.TelegramToken == "" {
		result.TelegramToken = defaults.TelegramToken
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.AdminPort == 0 {
		result.AdminPort = defaults.AdminPort
	}
	if result.QuestionLimit == 0 {
		result.QuestionLimit = defaults.QuestionLimit
	}
	if result.HistoryWindow == 0 {
		result.HistoryWindow = defaults.HistoryWindow
	}
	if result.TemplateTTLSec == 0 {
		result.TemplateTTLSec = defaults.TemplateTTLSec
	}
	if result.ProceedThreshold == 0 {
		result.ProceedThreshold = defaults.ProceedThreshold
	}
	if result.RejectThreshold == 0 {
		result.RejectThreshold = defaults.RejectThreshold
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
