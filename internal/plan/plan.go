package plan

import (
	"context"

	"guthealth-planner/internal/nutrition"
)

// Phase identifies a day-number-derived dietary ruleset window of the 21-day
// gut program. Phase 1 covers days 1-3 (reset), phase 2 days 4-21 (repair),
// phase 3 everything after day 21 (maintenance).
type Phase int

const (
	PhaseReset       Phase = 1
	PhaseRepair      Phase = 2
	PhaseMaintenance Phase = 3
)

// PhaseForDay derives the phase from a day number. It is a pure step function
// and the only way a phase is ever obtained; phases are never stored or
// mutated independently of the day.
func PhaseForDay(day int) Phase {
	switch {
	case day <= 3:
		return PhaseReset
	case day <= 21:
		return PhaseRepair
	default:
		return PhaseMaintenance
	}
}

// Ingredient is one ingredient of a suggested dish with its portioned quantity.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// NutritionEstimate is the provider's estimate for one dish.
type NutritionEstimate struct {
	Kcal        float64 `json:"kcal"`
	ProteinG    float64 `json:"protein_g"`
	FatG        float64 `json:"fat_g"`
	CarbG       float64 `json:"carb_g"`
	FiberG      float64 `json:"fiber_g"`
	VegetablesG float64 `json:"vegetables_g"`
	FruitG      float64 `json:"fruit_g"`
	AddedSugarG float64 `json:"added_sugar_g"`
	SodiumMG    float64 `json:"sodium_mg"`
}

// FitScore grades how well a dish matches the slot targets and the user's
// symptoms. Overall is always populated; the sub-scores are optional.
type FitScore struct {
	Overall             float64 `json:"overall"`
	MacroMatch          float64 `json:"macro_match,omitempty"`
	SymptomFriendliness float64 `json:"symptom_friendliness,omitempty"`
}

// Warning is a provider-issued caution attached to a dish.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuggestionMeal is one candidate dish. It is ephemeral: created per
// suggestion call, replaced or appended within a slot's list, and never
// mutated in place except to attach a late-arriving image.
type SuggestionMeal struct {
	RecipeName        string            `json:"recipe_name"`
	ShortDescription  string            `json:"short_description"`
	ShortReason       string            `json:"short_reason,omitempty"`
	Reason            string            `json:"reason,omitempty"`
	HowItSupportsGut  string            `json:"how_it_supports_gut,omitempty"`
	FitWithGoal       string            `json:"fit_with_goal,omitempty"`
	Ingredients       []Ingredient      `json:"ingredients"`
	NutritionEstimate NutritionEstimate `json:"nutrition_estimate"`
	FitScore          FitScore          `json:"fit_score"`
	Warnings          []Warning         `json:"warnings_or_notes,omitempty"`
	ImageURL          string            `json:"image_url,omitempty"`
}

// ProfileSummary is the subset of the user profile transmitted to the
// suggestion provider.
type ProfileSummary struct {
	Sex                 string   `json:"sex"`
	AgeYears            int      `json:"age_years"`
	HeightCM            float64  `json:"height_cm"`
	WeightKG            float64  `json:"weight_kg"`
	Goal                string   `json:"goal"`
	Conditions          []string `json:"conditions"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	AvoidIngredients    []string `json:"avoid_ingredients"`
}

// SuggestionRequest is one request against the suggestion provider. Every
// request carries the phase derived from the day number so the provider
// enforces the matching dietary ruleset.
type SuggestionRequest struct {
	RunID         string             `json:"run_id"`
	DayNumber     int                `json:"day_number"`
	MealSlot      nutrition.MealSlot `json:"meal_slot"`
	Phase         Phase              `json:"phase"`
	Targets       nutrition.Targets  `json:"targets"`
	Profile       ProfileSummary     `json:"profile_summary"`
	ExcludeTitles []string           `json:"exclude_titles,omitempty"`
	MaxItems      int                `json:"max_items,omitempty"` // 0 = provider decides
	PersonalNote  string             `json:"personal_note,omitempty"`
}

// SuggestionProvider is the external meal suggestion collaborator. It may
// fail, time out, or ignore the exclusion set; the reconciler surfaces
// failures unchanged and never substitutes content of its own.
type SuggestionProvider interface {
	Suggest(ctx context.Context, req SuggestionRequest) ([]SuggestionMeal, error)
}

// Snapshot is the best-effort persistence payload written after every slot
// mutation.
type Snapshot struct {
	RunID    string             `json:"run_id"`
	DayIndex int                `json:"day_index"`
	Phase    Phase              `json:"phase"`
	MealSlot nutrition.MealSlot `json:"meal_slot"`
	Items    []SuggestionMeal   `json:"items"`
}

// Snapshotter persists slot snapshots. Failures are logged by the reconciler
// and never surfaced to the user-facing flow.
type Snapshotter interface {
	Save(ctx context.Context, snap Snapshot) error
}
