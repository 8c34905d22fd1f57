package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"guthealth-planner/internal/llm"
)

// --- Mocks ---

type MockTextGenerator struct {
	Response    string
	LastPrompt  string
	ShouldError bool
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.LastPrompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{Content: m.Response}, nil
}

// --- Tests ---

func TestFetchAndCleanHTML(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		html := `
		<html>
			<head><script>alert('bad');</script></head>
			<body>
				<h1>Steamed Banana Oats</h1>
				<div class="ads">Buy stuff!</div>
				<p>Simmer oats with green banana.</p>
				<script>more_bad_stuff()</script>
				<footer>Copyright 2024</footer>
			</body>
		</html>`
		w.Write([]byte(html))
	}))
	defer ts.Close()

	c := NewClipper(&MockTextGenerator{}, nil)

	cleanText, err := c.fetchAndCleanHTML(ts.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if strings.Contains(cleanText, "alert('bad')") {
		t.Error("Failed to remove <script> tags")
	}
	if strings.Contains(cleanText, "Buy stuff!") {
		t.Error("Failed to remove .ads class")
	}
	if strings.Contains(cleanText, "Copyright 2024") {
		t.Error("Failed to remove <footer>")
	}
	if !strings.Contains(cleanText, "Steamed Banana Oats") {
		t.Error("Expected to find the heading text")
	}
	if !strings.Contains(cleanText, "Simmer oats with green banana.") {
		t.Error("Expected to find body content")
	}
}

func TestClip_Success(t *testing.T) {
	aiResponse := `{
		"recipe_name": "Steamed Banana Oats",
		"short_description": "Warm oats with green banana",
		"how_it_supports_gut": "Resistant starch feeds gut bacteria",
		"ingredients": [{"name": "green banana", "quantity": "1"}],
		"nutrition_estimate": {"kcal": 320, "protein_g": 8, "fat_g": 5, "carb_g": 60, "fiber_g": 9},
		"warnings": []
	}`
	mockAI := &MockTextGenerator{Response: aiResponse}
	c := NewClipper(mockAI, nil)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Some recipe content</body></html>"))
	}))
	defer ts.Close()

	meal, err := c.Clip(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Clip failed: %v", err)
	}

	if meal.RecipeName != "Steamed Banana Oats" {
		t.Errorf("Expected recipe name 'Steamed Banana Oats', got '%s'", meal.RecipeName)
	}
	if meal.NutritionEstimate.Kcal != 320 {
		t.Errorf("Expected 320 kcal, got %v", meal.NutritionEstimate.Kcal)
	}
	if !strings.Contains(mockAI.LastPrompt, "Some recipe content") {
		t.Error("Expected page text to be sent to the extractor")
	}
}

func TestClip_EmptyTitleFails(t *testing.T) {
	mockAI := &MockTextGenerator{Response: `{"recipe_name": ""}`}
	c := NewClipper(mockAI, nil)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Not a recipe page</body></html>"))
	}))
	defer ts.Close()

	if _, err := c.Clip(context.Background(), ts.URL); err == nil {
		t.Fatal("Expected error when no recipe was found")
	}
}

func TestClip_MalformedResponseFails(t *testing.T) {
	mockAI := &MockTextGenerator{Response: "not json"}
	c := NewClipper(mockAI, nil)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Content</body></html>"))
	}))
	defer ts.Close()

	if _, err := c.Clip(context.Background(), ts.URL); err == nil {
		t.Fatal("Expected error for malformed extraction response")
	}
}
