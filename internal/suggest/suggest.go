package suggest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"time"

	"guthealth-planner/internal/llm"
	"guthealth-planner/internal/plan"
	"guthealth-planner/internal/shared"
)

//go:embed menu_prompt.md
var menuPrompt string

// MetricsRecorder receives call metadata after every provider execution.
type MetricsRecorder interface {
	RecordMeta(meta shared.CallMeta) error
}

// Provider is the LLM-backed suggestion provider. It satisfies
// plan.SuggestionProvider.
type Provider struct {
	textGen llm.TextGenerator
	metrics MetricsRecorder // may be nil
}

// NewProvider creates a suggestion provider on top of a text generator.
func NewProvider(textGen llm.TextGenerator, metrics MetricsRecorder) *Provider {
	return &Provider{textGen: textGen, metrics: metrics}
}

type promptData struct {
	plan.SuggestionRequest
	Blacklist  string
	PhaseRules string
}

// response mirrors the JSON shape the model is instructed to return.
type response struct {
	DayNumber           int                   `json:"day_number"`
	Phase               int                   `json:"phase"`
	MealType            string                `json:"meal_type"`
	ExplanationForPhase string                `json:"explanation_for_phase"`
	SuggestedMeals      []plan.SuggestionMeal `json:"suggested_meals"`
}

// Suggest generates meal suggestions for one request. An empty or malformed
// model payload is an error; the caller decides what failure means.
func (p *Provider) Suggest(ctx context.Context, req plan.SuggestionRequest) ([]plan.SuggestionMeal, error) {
	start := time.Now()

	prompt, err := buildMenuPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.textGen.GenerateContent(ctx, prompt)
	p.record(shared.CallMeta{
		Operation: "suggest_menu",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	})
	if err != nil {
		return nil, err
	}

	var parsed response
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse menu suggestion JSON: %w. Response: %s", err, resp.Content)
	}

	meals := parsed.SuggestedMeals
	// The model occasionally over-delivers; honor the requested ceiling here
	// so callers can rely on max_items.
	if req.MaxItems > 0 && len(meals) > req.MaxItems {
		meals = meals[:req.MaxItems]
	}
	return meals, nil
}

func (p *Provider) record(meta shared.CallMeta) {
	if p.metrics == nil {
		return
	}
	if err := p.metrics.RecordMeta(meta); err != nil {
		log.Printf("Warning: failed to record provider metrics: %v", err)
	}
}

func buildMenuPrompt(req plan.SuggestionRequest) (string, error) {
	tmpl, err := template.New("menu").Parse(menuPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, promptData{
		SuggestionRequest: req,
		Blacklist:         blacklist,
		PhaseRules:        phaseRules[req.Phase],
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
