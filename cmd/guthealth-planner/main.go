package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"guthealth-planner/internal/app"
	"guthealth-planner/internal/clipper"
	"guthealth-planner/internal/config"
	"guthealth-planner/internal/database"
	"guthealth-planner/internal/llm"
	"guthealth-planner/internal/metrics"
	"guthealth-planner/internal/plan"
	"guthealth-planner/internal/profile"
	"guthealth-planner/internal/snapshot"
	"guthealth-planner/internal/suggest"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	textGen, err := newTextGenerator(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}
	if closer, ok := textGen.(llm.Closer); ok {
		defer closer.Close()
	}

	metricsStore := metrics.NewStore(db.SQL)
	provider := suggest.NewProvider(textGen, metricsStore)
	recipeClipper := clipper.NewClipper(textGen, metricsStore)
	profileRepo := profile.NewRepository(db.SQL)
	snapshots := newSnapshotter(cfg, db)

	application := app.NewApp(cfg, db, provider, snapshots, recipeClipper, metricsStore, profileRepo)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "profile":
		if err := runProfile(ctx, application, os.Args[2:]); err != nil {
			log.Fatalf("Profile update failed: %v", err)
		}
	case "targets":
		if err := application.ShowTargets(ctx); err != nil {
			log.Fatalf("Target calculation failed: %v", err)
		}
	case "suggest":
		suggestCmd := flag.NewFlagSet("suggest", flag.ExitOnError)
		runID := suggestCmd.String("run", "", "Plan run ID (empty starts a new run)")
		day := suggestCmd.Int("day", 1, "Plan day number (1-21 and beyond)")
		slot := suggestCmd.String("slot", "breakfast", "Meal slot: breakfast, lunch, dinner or snack")
		suggestCmd.Parse(os.Args[2:])

		if err := application.SuggestSlot(ctx, *runID, *day, *slot); err != nil {
			log.Fatalf("Suggestion failed: %v", err)
		}
	case "clip":
		if len(os.Args) < 3 {
			fmt.Println("Usage: guthealth-planner clip <url>")
			os.Exit(1)
		}
		if err := application.ClipRecipe(ctx, os.Args[2]); err != nil {
			log.Fatalf("Clip failed: %v", err)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		if err := application.CleanupMetrics(*days); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	case "status":
		if err := application.Status(); err != nil {
			log.Fatalf("Status failed: %v", err)
		}
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runProfile(ctx context.Context, application *app.App, args []string) error {
	profileCmd := flag.NewFlagSet("profile", flag.ExitOnError)
	sex := profileCmd.String("sex", "", "Sex: male, female or other")
	age := profileCmd.Int("age", 0, "Age in years")
	height := profileCmd.Float64("height", 0, "Height in cm")
	weight := profileCmd.Float64("weight", 0, "Weight in kg")
	activity := profileCmd.String("activity", "sedentary", "Activity level: sedentary, light, moderate, active, very_active")
	goal := profileCmd.String("goal", "", "Primary goal, e.g. 'healthy weight loss'")
	conditions := profileCmd.String("conditions", "", "Comma-separated health conditions")
	restrictions := profileCmd.String("restrictions", "", "Comma-separated dietary restrictions")
	avoid := profileCmd.String("avoid", "", "Comma-separated ingredients to avoid")
	prefer := profileCmd.String("prefer", "", "Comma-separated preferred ingredients")
	note := profileCmd.String("note", "", "Free-text note sent with every request")
	profileCmd.Parse(args)

	p := &profile.Profile{
		Sex:                  profile.Sex(*sex),
		AgeYears:             *age,
		HeightCM:             *height,
		WeightKG:             *weight,
		ActivityLevel:        profile.ActivityLevel(*activity),
		PrimaryGoal:          *goal,
		HealthConditions:     parseFlagSet(*conditions),
		DietaryRestrictions:  parseFlagSet(*restrictions),
		AvoidIngredients:     parseList(*avoid),
		PreferredIngredients: parseList(*prefer),
		PersonalNote:         *note,
	}
	return application.SaveProfile(ctx, p)
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseFlagSet(s string) map[string]bool {
	items := parseList(s)
	if len(items) == 0 {
		return nil
	}
	out := make(map[string]bool, len(items))
	for _, item := range items {
		out[item] = true
	}
	return out
}

func newTextGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, error) {
	if cfg.LLMBackend == "groq" {
		return llm.NewGroqClient(cfg), nil
	}
	return llm.NewGeminiClient(ctx, cfg)
}

func newSnapshotter(cfg *config.Config, db *database.DB) plan.Snapshotter {
	local := snapshot.NewRepository(db.SQL)
	if cfg.EdgeURL == "" || cfg.EdgeAdminKey == "" {
		return local
	}
	return snapshot.NewFanout(local, snapshot.NewEdgeClient(cfg))
}

func printUsage() {
	fmt.Println("Usage: guthealth-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  profile            Save the active biometric and dietary profile")
	fmt.Println("  targets            Show daily and per-meal targets for the active profile")
	fmt.Println("  suggest            Suggest dishes for a day and meal slot")
	fmt.Println("  clip               Import a recipe from a URL")
	fmt.Println("  metrics-cleanup    Remove old metric records")
	fmt.Println("  status             Show recent usage and process health")
}
