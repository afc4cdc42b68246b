package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/story-adventure/internal/config"
	"github.com/jwebster45206/story-adventure/internal/handlers"
	"github.com/jwebster45206/story-adventure/internal/logger"
	"github.com/jwebster45206/story-adventure/internal/metrics"
	"github.com/jwebster45206/story-adventure/internal/middleware"
	"github.com/jwebster45206/story-adventure/internal/narrative"
	"github.com/jwebster45206/story-adventure/internal/services"
	"github.com/jwebster45206/story-adventure/internal/services/events"
	internalstorage "github.com/jwebster45206/story-adventure/internal/storage"
	"github.com/jwebster45206/story-adventure/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Story Adventure API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"storage_backend", cfg.StorageBackend,
		"text_provider", cfg.TextProvider)

	if cfg.GeminiAPIKey == "" {
		log.Error("GEMINI_API_KEY is required for drawing edits")
		os.Exit(1)
	}
	if cfg.OpenAIAPIKey == "" {
		log.Error("OPENAI_API_KEY is required for scene images")
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer startupCancel()

	gemini, err := services.NewGeminiService(startupCtx, cfg.GeminiAPIKey, cfg.GeminiTextModel, cfg.GeminiImageModel, log)
	if err != nil {
		log.Error("Failed to create Gemini client", "error", err)
		os.Exit(1)
	}
	openai := services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAITextModel, cfg.OpenAIImageModel, log)

	var text services.TextGenerator
	switch cfg.TextProvider {
	case config.ProviderOpenAI:
		text = openai
		log.Info("Using OpenAI text provider", "model", cfg.OpenAITextModel)
	default:
		text = gemini
		log.Info("Using Gemini text provider", "model", cfg.GeminiTextModel)
	}

	var (
		store       storage.Storage
		publisher   events.Publisher = events.NopPublisher{}
		broadcaster *events.Broadcaster
		redisClient *redis.Client
	)
	switch cfg.StorageBackend {
	case config.StorageSQLite:
		sqliteStore, err := internalstorage.OpenSQLite(cfg.SQLitePath, cfg.AdventureTTL, cfg.LockTTL, log)
		if err != nil {
			log.Error("Failed to open SQLite storage", "error", err, "path", cfg.SQLitePath)
			os.Exit(1)
		}
		store = sqliteStore
	default:
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		redisStore := internalstorage.NewRedisStorage(redisClient, cfg.AdventureTTL, cfg.LockTTL, log)
		if err := redisStore.WaitForConnection(startupCtx); err != nil {
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		}
		store = redisStore
		broadcaster = events.NewBroadcaster(redisClient, log)
		publisher = broadcaster
	}
	log.Info("Storage connection established successfully")

	elevenLabs := services.NewElevenLabsService(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, log)
	var narrator services.Narrator
	switch {
	case !elevenLabs.Enabled():
		log.Warn("ELEVENLABS_API_KEY not set, stories will have no narration")
	case redisClient != nil:
		narrator = services.NewCachedNarrator(elevenLabs, services.NewRedisAudioCache(redisClient, log), cfg.NarrationCacheTTL, log)
	default:
		narrator = elevenLabs
	}

	orchestrator := narrative.New(text, openai, gemini, narrator, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, elevenLabs.Enabled(), log))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/v1/options", handlers.NewOptionsHandler(log))

	adventureHandler := handlers.NewAdventureHandler(store, orchestrator, publisher, cfg.GenerationTimeout, log)
	mux.Handle("/v1/adventures", adventureHandler)
	mux.Handle("/v1/adventures/", adventureHandler)

	mux.Handle("/v1/events/adventures/", handlers.NewEventsHandler(broadcaster, log))

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: generation can take minutes and SSE streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := gemini.Close(); err != nil {
		log.Error("Error closing Gemini client", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
