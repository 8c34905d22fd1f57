package suggest

import (
	"context"
	"strings"
	"testing"

	"guthealth-planner/internal/llm"
	"guthealth-planner/internal/nutrition"
	"guthealth-planner/internal/plan"
	"guthealth-planner/internal/shared"
)

type MockTextGenerator struct {
	prompts  []string
	response string
	err      error
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	return llm.ContentResponse{
		Content: m.response,
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, Model: "mock"},
	}, nil
}

type MockRecorder struct {
	metas []shared.CallMeta
}

func (m *MockRecorder) RecordMeta(meta shared.CallMeta) error {
	m.metas = append(m.metas, meta)
	return nil
}

func testRequest() plan.SuggestionRequest {
	return plan.SuggestionRequest{
		RunID:     "run-1",
		DayNumber: 5,
		MealSlot:  nutrition.SlotLunch,
		Phase:     plan.PhaseRepair,
		Targets:   nutrition.Targets{Kcal: 930, ProteinG: 58, FatG: 31, CarbG: 105, FiberG: 13, VegetablesG: 186, FruitG: 93},
		Profile: plan.ProfileSummary{
			Sex: "female", AgeYears: 34, HeightCM: 165, WeightKG: 62,
			Goal:       "improve digestion",
			Conditions: []string{"IBS"},
		},
		ExcludeTitles: []string{"Steamed Green Banana"},
		MaxItems:      1,
		PersonalNote:  "prefers warm meals",
	}
}

const validResponse = `{
  "day_number": 5,
  "phase": 2,
  "meal_type": "lunch",
  "explanation_for_phase": "Repair phase allows sweet potato.",
  "suggested_meals": [
    {
      "recipe_name": "Grilled Salmon with Sweet Potato",
      "short_description": "Omega-3 rich lunch",
      "ingredients": [{"name": "salmon", "quantity": "150g"}, {"name": "sweet potato", "quantity": "180g"}],
      "nutrition_estimate": {"kcal": 920, "protein_g": 55, "fat_g": 32, "carb_g": 100, "fiber_g": 12},
      "fit_score": {"overall": 0.9}
    }
  ]
}`

func TestSuggest_ParsesMeals(t *testing.T) {
	gen := &MockTextGenerator{response: validResponse}
	recorder := &MockRecorder{}
	p := NewProvider(gen, recorder)

	meals, err := p.Suggest(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("expected 1 meal, got %d", len(meals))
	}
	if meals[0].RecipeName != "Grilled Salmon with Sweet Potato" {
		t.Errorf("unexpected recipe name %q", meals[0].RecipeName)
	}
	if meals[0].NutritionEstimate.Kcal != 920 {
		t.Errorf("unexpected kcal estimate %v", meals[0].NutritionEstimate.Kcal)
	}

	if len(recorder.metas) != 1 {
		t.Fatalf("expected 1 recorded meta, got %d", len(recorder.metas))
	}
	if recorder.metas[0].Usage.PromptTokens != 100 {
		t.Errorf("unexpected recorded usage: %+v", recorder.metas[0].Usage)
	}
}

func TestSuggest_PromptCarriesConstraints(t *testing.T) {
	gen := &MockTextGenerator{response: validResponse}
	p := NewProvider(gen, nil)

	if _, err := p.Suggest(context.Background(), testRequest()); err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}

	prompt := gen.prompts[0]
	for _, want := range []string{
		"day 5",
		"phase 2",
		"PHASE 2 (days 4-21, repair)",
		"FORBIDDEN FOOD CATEGORIES",
		"930 kcal",
		"Steamed Green Banana",
		"exactly 1",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSuggest_PhaseSelectsRuleset(t *testing.T) {
	gen := &MockTextGenerator{response: validResponse}
	p := NewProvider(gen, nil)

	req := testRequest()
	req.DayNumber = 2
	req.Phase = plan.PhaseReset
	p.Suggest(context.Background(), req)

	if !strings.Contains(gen.prompts[0], "PHASE 1 (days 1-3, reset)") {
		t.Errorf("phase 1 request should carry the reset ruleset")
	}
	if strings.Contains(gen.prompts[0], "PHASE 2 (days 4-21") {
		t.Errorf("phase 1 request should not carry the repair ruleset")
	}
}

func TestSuggest_TruncatesToMaxItems(t *testing.T) {
	multi := strings.Replace(validResponse,
		`"fit_score": {"overall": 0.9}
    }`,
		`"fit_score": {"overall": 0.9}
    },
    {
      "recipe_name": "Second Dish",
      "ingredients": [],
      "nutrition_estimate": {"kcal": 100},
      "fit_score": {"overall": 0.5}
    }`, 1)

	gen := &MockTextGenerator{response: multi}
	p := NewProvider(gen, nil)

	meals, err := p.Suggest(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(meals) != 1 {
		t.Errorf("max_items=1 should truncate to 1 meal, got %d", len(meals))
	}
}

func TestSuggest_MalformedJSONFails(t *testing.T) {
	gen := &MockTextGenerator{response: "I'm sorry, here is your menu: rice and beans"}
	p := NewProvider(gen, nil)

	if _, err := p.Suggest(context.Background(), testRequest()); err == nil {
		t.Fatal("expected an error for a malformed payload, got nil")
	}
}
