package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"convohub-backend/internal/api"
	"convohub-backend/internal/config"
	"convohub-backend/internal/handlers"
	"convohub-backend/internal/llm"
	"convohub-backend/internal/models"
	"convohub-backend/internal/services"
	redisstore "convohub-backend/internal/store/redis"
	"convohub-backend/internal/vector"

	goredis "github.com/redis/go-redis/v9"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
)

func main() {
	log.Println("Starting ConvoHub Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Connect to Redis
	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("FATAL: Unable to ping Redis at %s: %v", cfg.RedisAddr, err)
	}
	log.Println("Redis connection established and pinged successfully.")

	// 3. Connect to Weaviate
	weaviateCfg := weaviate.Config{
		Host:   cfg.WeaviateHost,
		Scheme: cfg.WeaviateScheme,
	}
	if cfg.WeaviateAPIKey != "" {
		weaviateCfg.AuthConfig = auth.ApiKey{Value: cfg.WeaviateAPIKey}
	}
	weaviateClient, err := weaviate.NewClient(weaviateCfg)
	if err != nil {
		log.Fatalf("FATAL: Unable to create Weaviate client: %v", err)
	}
	log.Println("Weaviate client initialized.")

	// 4. Initialize Dependencies (Store, LLM, Vector Index)
	chatStore := redisstore.NewRedisStore(redisClient)
	log.Println("Redis store initialized.")

	llmClient := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.ModelName, cfg.EmbeddingModel, cfg.Temperature)
	log.Println("OpenAI client initialized.")

	vectorIndex := vector.NewWeaviateIndex(weaviateClient, llmClient)
	log.Println("Weaviate index initialized.")

	// Make sure the chunk class exists before serving traffic. A failure
	// here is logged but not fatal: chat without retrieval still works.
	ensureCtx, ensureCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer ensureCancel()
	if err := vectorIndex.EnsureCollection(ensureCtx, models.SharedKBCollection); err != nil {
		log.Printf("WARN: Could not ensure vector schema: %v", err)
	}

	// --- Initialize Services ---
	chatService := services.NewChatService(chatStore, vectorIndex, llmClient)
	log.Println("ChatService initialized.")
	ingestService := services.NewIngestService(chatStore, vectorIndex)
	log.Println("IngestService initialized.")
	summarizeService := services.NewSummarizeService(llmClient)
	log.Println("SummarizeService initialized.")

	// --- Initialize Handlers ---
	companionHandler := handlers.NewChatHandlers(chatService, models.FeatureCompanion)
	storyHandler := handlers.NewChatHandlers(chatService, models.FeatureStory)
	excelHandler := handlers.NewChatHandlers(chatService, models.FeatureExcel)
	log.Println("ChatHandlers initialized.")
	docsHandler := handlers.NewDocsHandlers(chatService, ingestService)
	log.Println("DocsHandlers initialized.")
	summarizeHandler := handlers.NewSummarizeHandlers(summarizeService)
	log.Println("SummarizeHandlers initialized.")

	// 5. Setup Router & Inject Dependencies
	routerDeps := api.RouterDependencies{
		CompanionHandler: companionHandler,
		StoryHandler:     storyHandler,
		ExcelHandler:     excelHandler,
		DocsHandler:      docsHandler,
		SummarizeHandler: summarizeHandler,
		Config:           cfg,
	}
	router := api.NewRouter(routerDeps)
	log.Println("HTTP router configured.")

	// 6. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// Generation and transcription calls can take a while, so the
		// write timeout is generous. Reads stay tight.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for OS signals for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	// Run server in a goroutine so it doesn't block
	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	// Wait for interrupt signal
	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}
