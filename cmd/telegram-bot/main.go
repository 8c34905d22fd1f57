package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guthealth-planner/internal/clipper"
	"guthealth-planner/internal/config"
	"guthealth-planner/internal/database"
	"guthealth-planner/internal/llm"
	"guthealth-planner/internal/metrics"
	"guthealth-planner/internal/plan"
	"guthealth-planner/internal/profile"
	"guthealth-planner/internal/snapshot"
	"guthealth-planner/internal/suggest"
	"guthealth-planner/internal/telegram"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	var textGen llm.TextGenerator
	if cfg.LLMBackend == "groq" {
		textGen = llm.NewGroqClient(cfg)
	} else {
		geminiClient, err := llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		if closer, ok := geminiClient.(llm.Closer); ok {
			defer closer.Close()
		}
		textGen = geminiClient
	}

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	provider := suggest.NewProvider(textGen, metricsStore)
	recipeClipper := clipper.NewClipper(textGen, metricsStore)
	profileRepo := profile.NewRepository(db.SQL)
	sessionRepo := telegram.NewSessionRepository(db.SQL)

	var snapshots plan.Snapshotter = snapshot.NewRepository(db.SQL)
	if cfg.EdgeURL != "" && cfg.EdgeAdminKey != "" {
		snapshots = snapshot.NewFanout(snapshots, snapshot.NewEdgeClient(cfg))
	}

	bot, err := telegram.NewBot(cfg, provider, snapshots, recipeClipper, metricsStore, profileRepo, sessionRepo)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
