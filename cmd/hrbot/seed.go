package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
	"github.com/geralexgit/ai-hr-bot-sub001/internal/prompts"
)

var seedCmd = &cobra.Command{
	Use:   "seed-templates",
	Short: "Seed the prompt_templates table from the compiled-in defaults",
	Long: `Inserts every compiled-in prompt template into the database so recruiters
can edit them through the admin API. Existing templates are left untouched
unless --force is given.`,
	RunE: runSeed,
}

var seedForce bool

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Overwrite templates that already exist")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	names := prompts.FallbackNames()
	sort.Strings(names)

	var seeded, skipped int
	for _, name := range names {
		if !seedForce {
			existing, err := database.GetTemplateByName(ctx, name)
			if err != nil {
				return fmt.Errorf("failed to check template %s: %w", name, err)
			}
			if existing != nil {
				skipped++
				continue
			}
		}

		template, _ := prompts.Fallback(name)
		if _, err := database.UpsertTemplate(ctx, &db.PromptTemplateInput{
			Name:        name,
			Category:    "interview",
			Template:    template,
			Active:      true,
			Description: "Built-in default",
		}); err != nil {
			return fmt.Errorf("failed to seed template %s: %w", name, err)
		}
		seeded++
	}

	cmd.Printf("Seeded %d templates, skipped %d existing\n", seeded, skipped)
	return nil
}
