package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"guthealth-planner/internal/llm"
	"guthealth-planner/internal/plan"
	"guthealth-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

// MetricsRecorder receives call metadata after each extraction.
type MetricsRecorder interface {
	RecordMeta(meta shared.CallMeta) error
}

// Clipper fetches a recipe page and normalizes it into a suggestion meal
// so it can be slotted into a plan alongside generated suggestions.
type Clipper struct {
	textGen llm.TextGenerator
	metrics MetricsRecorder
}

// NewClipper creates a new Clipper instance. metrics may be nil.
func NewClipper(textGen llm.TextGenerator, metrics MetricsRecorder) *Clipper {
	return &Clipper{
		textGen: textGen,
		metrics: metrics,
	}
}

type extractedRecipe struct {
	RecipeName       string                 `json:"recipe_name"`
	ShortDescription string                 `json:"short_description"`
	HowItSupportsGut string                 `json:"how_it_supports_gut"`
	Ingredients      []plan.Ingredient      `json:"ingredients"`
	Nutrition        plan.NutritionEstimate `json:"nutrition_estimate"`
	Warnings         []plan.Warning         `json:"warnings"`
}

// Clip fetches the URL, extracts the recipe, and returns it as a
// suggestion meal.
func (c *Clipper) Clip(ctx context.Context, url string) (*plan.SuggestionMeal, error) {
	content, err := c.fetchAndCleanHTML(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert for a gut-health meal planner. Extract the recipe from the following page text.
Return the result strictly as a JSON object with this structure:
{
  "recipe_name": "Recipe Title",
  "short_description": "one-sentence description",
  "how_it_supports_gut": "one sentence on digestive impact, or empty string",
  "ingredients": [{"name": "item", "quantity": "amount"}],
  "nutrition_estimate": {"kcal": 0, "protein_g": 0, "fat_g": 0, "carb_g": 0, "fiber_g": 0},
  "warnings": [{"code": "refined_sugar", "message": "contains refined sugar"}]
}
List a warning for any ingredient that is fried, fermented, raw, dairy, red meat, seafood, refined sugar, gluten, or a processed food.

Page text:
%s
`, content)

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("recipe extraction failed: %w", err)
	}
	c.recordMeta(resp.Usage, time.Since(start))

	var extracted extractedRecipe
	if err := json.Unmarshal([]byte(resp.Content), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w. Response: %s", err, resp.Content)
	}
	if extracted.RecipeName == "" {
		return nil, fmt.Errorf("no recipe found at %s", url)
	}

	meal := &plan.SuggestionMeal{
		RecipeName:        extracted.RecipeName,
		ShortDescription:  extracted.ShortDescription,
		HowItSupportsGut:  extracted.HowItSupportsGut,
		Ingredients:       extracted.Ingredients,
		NutritionEstimate: extracted.Nutrition,
		Warnings:          extracted.Warnings,
	}
	return meal, nil
}

func (c *Clipper) fetchAndCleanHTML(url string) (string, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}

func (c *Clipper) recordMeta(usage shared.TokenUsage, latency time.Duration) {
	if c.metrics == nil {
		return
	}
	meta := shared.CallMeta{
		Operation: "clip",
		Usage:     usage,
		Latency:   latency,
	}
	if err := c.metrics.RecordMeta(meta); err != nil {
		log.Printf("Warning: failed to record clip metrics: %v", err)
	}
}
