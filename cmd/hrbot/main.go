// Package main is the entry point for the HR interview bot.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "hrbot",
	Short: "Automated HR interview bot",
	Long:  "hrbot runs chat-based screening interviews over Telegram: candidates pick a vacancy, answer a fixed number of model-generated questions and receive closing feedback, while recruiters get structured, weighted evaluations.",
}

var (
	flagConfigPath string
	flagVerbose    bool
	flagJSONLogs   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "Path to config.json (optional)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "Emit JSON logs instead of console output")
}

// loadConfig merges the optional config file, environment credentials and
// defaults, with CLI flags applied last.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if flagConfigPath != "" {
		loaded, err := config.LoadConfig(flagConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.FromEnv()
	merged := cfg.MergeWithDefaults(config.Defaults())

	if flagVerbose {
		merged.Verbose = true
	}
	if flagJSONLogs {
		merged.LogJSON = true
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
