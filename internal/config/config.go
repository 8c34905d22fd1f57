package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the configuration for the application.
type Config struct {
	LLMBackend   string
	GeminiAPIKey string
	GroqAPIKey   string

	DBPath string

	// Remote snapshot endpoint (optional)
	EdgeURL      string
	EdgeAdminKey string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64

	PersonalNote string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	backend := os.Getenv("LLM_BACKEND")
	if backend == "" {
		backend = "gemini"
	}
	if backend != "gemini" && backend != "groq" {
		return nil, fmt.Errorf("LLM_BACKEND must be 'gemini' or 'groq', got %q", backend)
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if backend == "gemini" && geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	groqAPIKey := os.Getenv("GROQ_API_KEY")
	if backend == "groq" && groqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "data/guthealth.db"
	}

	// Telegram Config (Optional for CLI, required for Bot)
	allowedIDs, err := parseUserIDs(os.Getenv("TELEGRAM_ALLOW_USER_IDS"))
	if err != nil {
		return nil, err
	}

	return &Config{
		LLMBackend:             backend,
		GeminiAPIKey:           geminiAPIKey,
		GroqAPIKey:             groqAPIKey,
		DBPath:                 dbPath,
		EdgeURL:                os.Getenv("EDGE_URL"),
		EdgeAdminKey:           os.Getenv("EDGE_ADMIN_KEY"),
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowedIDs,
		PersonalNote:           os.Getenv("PERSONAL_NOTE"),
	}, nil
}

func parseUserIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALLOW_USER_IDS contains invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
