package telegram

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"guthealth-planner/internal/database"
	"guthealth-planner/internal/nutrition"
	"guthealth-planner/internal/plan"
)

func TestFormatSlotMarkdown(t *testing.T) {
	targets := nutrition.Targets{Kcal: 930, ProteinG: 58, FatG: 31, CarbG: 105}
	items := []plan.SuggestionMeal{
		{
			RecipeName:       "Steamed Sweet Potato Bowl",
			ShortDescription: "Warm lunch bowl",
			HowItSupportsGut: "Resistant starch feeds gut bacteria",
			NutritionEstimate: plan.NutritionEstimate{
				Kcal: 480, ProteinG: 22, FatG: 12, CarbG: 70, FiberG: 9,
			},
			Warnings: []plan.Warning{{Code: "spicy", Message: "Go easy on the chili"}},
		},
		{RecipeName: "Ginger Chicken Congee"},
	}

	out := formatSlotMarkdown(5, plan.PhaseRepair, nutrition.SlotLunch, targets, items)

	for _, sub := range []string{
		"*Day 5*",
		"Phase 2 (Repair)",
		"*lunch* (930 kcal)",
		"*1. Steamed Sweet Potato Bowl*",
		"_Warm lunch bowl_",
		"≈480 kcal",
		"fiber 9g",
		"Resistant starch feeds gut bacteria",
		"Go easy on the chili",
		"*2. Ginger Chicken Congee*",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("Expected output to contain %q\nGot:\n%s", sub, out)
		}
	}
}

func TestFormatSlotMarkdown_Empty(t *testing.T) {
	out := formatSlotMarkdown(1, plan.PhaseReset, nutrition.SlotBreakfast, nutrition.Targets{Kcal: 500}, nil)
	if !strings.Contains(out, "No dishes in this slot") {
		t.Errorf("Expected empty-slot notice, got:\n%s", out)
	}
}

func TestFormatTargetsMarkdown(t *testing.T) {
	daily := nutrition.Targets{Kcal: 2656, ProteinG: 166, FatG: 89, CarbG: 299, FiberG: 37, VegetablesG: 531, FruitG: 266}
	slots := nutrition.SplitByMealSlot(daily)

	out := formatTargetsMarkdown(daily, slots)

	for _, sub := range []string{
		"Energy: 2656 kcal",
		"Fiber: 37g",
		"breakfast:",
		"lunch:",
		"dinner:",
		"snack:",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("Expected output to contain %q\nGot:\n%s", sub, out)
		}
	}
}

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		in  string
		cmd string
		arg string
	}{
		{"/day 5", "/day", "5"},
		{"/suggest", "/suggest", ""},
		{"/meal  lunch", "/meal", "lunch"},
	}
	for _, c := range cases {
		cmd, arg := splitCommand(c.in)
		if cmd != c.cmd || arg != c.arg {
			t.Errorf("splitCommand(%q) = (%q, %q), want (%q, %q)", c.in, cmd, arg, c.cmd, c.arg)
		}
	}
}

func TestSessionRepository_RoundTrip(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	defer db.SQL.Close()

	repo := NewSessionRepository(db.SQL)
	ctx := context.Background()

	missing, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if missing != nil {
		t.Fatalf("Get() = %+v, want nil for unknown chat", missing)
	}

	sess := Session{ChatID: 42, RunID: "run-abc", DayIndex: 7, MealSlot: "dinner"}
	if err := repo.Upsert(ctx, sess); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Upsert again with a new position, must replace not duplicate.
	sess.DayIndex = 8
	sess.MealSlot = "snack"
	if err := repo.Upsert(ctx, sess); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || got.DayIndex != 8 || got.MealSlot != "snack" || got.RunID != "run-abc" {
		t.Errorf("Get() = %+v, want day 8 snack on run-abc", got)
	}

	if err := repo.Delete(ctx, 42); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	gone, err := repo.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get() after delete error = %v", err)
	}
	if gone != nil {
		t.Errorf("Get() after delete = %+v, want nil", gone)
	}
}
