package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"guthealth-planner/internal/clipper"
	"guthealth-planner/internal/config"
	"guthealth-planner/internal/database"
	"guthealth-planner/internal/metrics"
	"guthealth-planner/internal/nutrition"
	"guthealth-planner/internal/plan"
	"guthealth-planner/internal/profile"

	"github.com/google/uuid"
)

// App holds the application's dependencies.
type App struct {
	cfg          *config.Config
	db           *database.DB
	provider     plan.SuggestionProvider
	snapshots    plan.Snapshotter
	recipeClip   *clipper.Clipper
	metricsStore *metrics.Store
	profileRepo  *profile.Repository
}

// NewApp creates and initializes a new App instance.
func NewApp(
	cfg *config.Config,
	db *database.DB,
	provider plan.SuggestionProvider,
	snapshots plan.Snapshotter,
	recipeClip *clipper.Clipper,
	metricsStore *metrics.Store,
	profileRepo *profile.Repository,
) *App {
	return &App{
		cfg:          cfg,
		db:           db,
		provider:     provider,
		snapshots:    snapshots,
		recipeClip:   recipeClip,
		metricsStore: metricsStore,
		profileRepo:  profileRepo,
	}
}

// SaveProfile validates and stores a profile as the active one.
func (a *App) SaveProfile(ctx context.Context, p *profile.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	id, err := a.profileRepo.Save(ctx, p)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	fmt.Printf("Profile #%d saved.\n", id)
	return nil
}

// ShowTargets computes and prints daily and per-slot targets for the
// active profile.
func (a *App) ShowTargets(ctx context.Context) error {
	p, err := a.activeProfile(ctx)
	if err != nil {
		return err
	}

	daily := nutrition.DailyTargets(p)
	slots := nutrition.SplitByMealSlot(daily)
	fmt.Print(renderTargets(daily, slots))
	return nil
}

// SuggestSlot runs one suggestion pass for a (day, slot) pair and prints
// the resulting list. When runID is empty a new run is started.
func (a *App) SuggestSlot(ctx context.Context, runID string, day int, slotName string) error {
	if day < 1 {
		return fmt.Errorf("day must be >= 1, got %d", day)
	}
	slot, ok := nutrition.ParseSlot(slotName)
	if !ok {
		return fmt.Errorf("unknown meal slot %q (want breakfast, lunch, dinner or snack)", slotName)
	}

	p, err := a.activeProfile(ctx)
	if err != nil {
		return err
	}

	if runID == "" {
		runID = uuid.NewString()
		fmt.Printf("Starting new plan run %s\n", runID)
	}

	daily := nutrition.DailyTargets(p)
	r := plan.NewReconciler(runID, a.provider, a.snapshots, p, nutrition.SplitByMealSlot(daily))
	r.SetPersonalNote(a.cfg.PersonalNote)
	r.SelectDay(day)
	r.SelectSlot(slot)

	items, err := r.SuggestForSlot(ctx)
	if err != nil {
		return fmt.Errorf("failed to suggest for day %d %s: %w", day, slot, err)
	}

	fmt.Print(renderSlot(day, r.Phase(), slot, r.SlotTargets(), items))
	return nil
}

// ClipRecipe imports a recipe URL and prints the normalized result.
func (a *App) ClipRecipe(ctx context.Context, url string) error {
	fmt.Printf("Importing recipe from %s ...\n", url)

	meal, err := a.recipeClip.Clip(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to clip recipe: %w", err)
	}

	fmt.Printf("\n%s\n", meal.RecipeName)
	if meal.ShortDescription != "" {
		fmt.Printf("  %s\n", meal.ShortDescription)
	}
	for _, ing := range meal.Ingredients {
		if ing.Quantity != "" {
			fmt.Printf("  - %s (%s)\n", ing.Name, ing.Quantity)
		} else {
			fmt.Printf("  - %s\n", ing.Name)
		}
	}
	for _, w := range meal.Warnings {
		fmt.Printf("  ! %s\n", w.Message)
	}
	return nil
}

// CleanupMetrics deletes metrics rows older than the retention window.
func (a *App) CleanupMetrics(olderThanDays int) error {
	deleted, err := a.metricsStore.Cleanup(olderThanDays)
	if err != nil {
		return fmt.Errorf("failed to clean up metrics: %w", err)
	}
	fmt.Printf("Deleted %d metric rows older than %d days.\n", deleted, olderThanDays)
	return nil
}

// Status prints recent provider usage and process health.
func (a *App) Status() error {
	usage, err := a.metricsStore.GetDailyUsage(7)
	if err != nil {
		return fmt.Errorf("failed to fetch usage: %w", err)
	}

	fmt.Println("=== PROVIDER USAGE (7 days) ===")
	if len(usage) == 0 {
		fmt.Println("no data yet")
	}
	for _, d := range usage {
		fmt.Printf("%-12s %6d prompt / %6d completion tokens, %d calls\n", d.Date, d.TotalPrompt, d.TotalCompletion, d.TotalCalls)
	}

	health := metrics.GetSysHealth(filepath.Dir(a.cfg.DBPath))
	fmt.Println("\n=== SYSTEM ===")
	fmt.Printf("RAM: %dMB alloc / %dMB sys, GC runs: %d, goroutines: %d\n", health.AllocMB, health.SysMB, health.NumGC, health.Goroutines)
	fmt.Printf("Data dir: %s\n", health.DataDirSize)
	return nil
}

func (a *App) activeProfile(ctx context.Context) (*profile.Profile, error) {
	p, err := a.profileRepo.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("no profile found: run the profile command first")
	}
	if err := p.Validate(); err != nil {
		log.Printf("Warning: stored profile fails validation: %v", err)
	}
	return p, nil
}

func renderTargets(daily nutrition.Targets, slots map[nutrition.MealSlot]nutrition.Targets) string {
	var sb strings.Builder
	sb.WriteString("=== DAILY TARGETS ===\n")
	sb.WriteString(fmt.Sprintf("Energy:     %d kcal\n", daily.Kcal))
	sb.WriteString(fmt.Sprintf("Protein:    %d g\n", daily.ProteinG))
	sb.WriteString(fmt.Sprintf("Fat:        %d g\n", daily.FatG))
	sb.WriteString(fmt.Sprintf("Carbs:      %d g\n", daily.CarbG))
	sb.WriteString(fmt.Sprintf("Fiber:      %d g\n", daily.FiberG))
	sb.WriteString(fmt.Sprintf("Vegetables: %d g\n", daily.VegetablesG))
	sb.WriteString(fmt.Sprintf("Fruit:      %d g\n", daily.FruitG))

	sb.WriteString("\n=== PER MEAL ===\n")
	for _, slot := range nutrition.SlotOrder {
		t := slots[slot]
		sb.WriteString(fmt.Sprintf("%-10s %4d kcal  P %3dg  F %3dg  C %3dg  fiber %2dg\n",
			slot, t.Kcal, t.ProteinG, t.FatG, t.CarbG, t.FiberG))
	}
	return sb.String()
}

func renderSlot(day int, phase plan.Phase, slot nutrition.MealSlot, targets nutrition.Targets, items []plan.SuggestionMeal) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n=== DAY %d, PHASE %d, %s (%d kcal) ===\n", day, phase, strings.ToUpper(string(slot)), targets.Kcal))
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, item.RecipeName))
		if item.ShortDescription != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", item.ShortDescription))
		}
		if item.NutritionEstimate.Kcal > 0 {
			sb.WriteString(fmt.Sprintf("   ~%.0f kcal, P %.0fg, F %.0fg, C %.0fg, fiber %.0fg\n",
				item.NutritionEstimate.Kcal,
				item.NutritionEstimate.ProteinG,
				item.NutritionEstimate.FatG,
				item.NutritionEstimate.CarbG,
				item.NutritionEstimate.FiberG))
		}
		if item.HowItSupportsGut != "" {
			sb.WriteString(fmt.Sprintf("   gut: %s\n", item.HowItSupportsGut))
		}
		for _, w := range item.Warnings {
			sb.WriteString(fmt.Sprintf("   warning: %s\n", w.Message))
		}
	}
	return sb.String()
}
