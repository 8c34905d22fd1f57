package app

import (
	"strings"
	"testing"

	"guthealth-planner/internal/nutrition"
	"guthealth-planner/internal/plan"
)

func TestRenderTargets(t *testing.T) {
	daily := nutrition.Targets{Kcal: 2656, ProteinG: 166, FatG: 89, CarbG: 299, FiberG: 37, VegetablesG: 531, FruitG: 266}
	out := renderTargets(daily, nutrition.SplitByMealSlot(daily))

	for _, sub := range []string{
		"Energy:     2656 kcal",
		"Fiber:      37 g",
		"breakfast",
		"lunch",
		"dinner",
		"snack",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("Expected output to contain %q\nGot:\n%s", sub, out)
		}
	}
}

func TestRenderSlot(t *testing.T) {
	items := []plan.SuggestionMeal{
		{
			RecipeName:       "Ginger Chicken Congee",
			ShortDescription: "Gentle rice porridge",
			HowItSupportsGut: "Easy to digest and warming",
			NutritionEstimate: plan.NutritionEstimate{
				Kcal: 410, ProteinG: 28, FatG: 9, CarbG: 55, FiberG: 4,
			},
			Warnings: []plan.Warning{{Code: "sodium", Message: "Watch the fish sauce"}},
		},
	}

	out := renderSlot(2, plan.PhaseReset, nutrition.SlotBreakfast, nutrition.Targets{Kcal: 664}, items)

	for _, sub := range []string{
		"DAY 2, PHASE 1, BREAKFAST (664 kcal)",
		"1. Ginger Chicken Congee",
		"Gentle rice porridge",
		"~410 kcal",
		"gut: Easy to digest and warming",
		"warning: Watch the fish sauce",
	} {
		if !strings.Contains(out, sub) {
			t.Errorf("Expected output to contain %q\nGot:\n%s", sub, out)
		}
	}
}
