package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort       string
	AllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WeaviateHost   string
	WeaviateScheme string
	WeaviateAPIKey string

	OpenAIKey      string
	ModelName      string
	EmbeddingModel string
	Temperature    float32
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	err := godotenv.Load() // Loads .env from the current directory or parent dirs
	if err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Don't fail if .env is not present, might be in production
	}

	port := getEnv("HTTP_PORT", "8080")

	openAIKey := getEnv("OPENAI_API_KEY", "") // No default, should fail if not set
	if openAIKey == "" {
		log.Fatal("FATAL: OPENAI_API_KEY environment variable is not set.")
	}

	redisDBStr := getEnv("REDIS_DB", "0")
	redisDB, err := strconv.Atoi(redisDBStr)
	if err != nil {
		log.Printf("Warning: Invalid REDIS_DB '%s', using default 0. Error: %v", redisDBStr, err)
		redisDB = 0
	}

	temperatureStr := getEnv("TEMPERATURE", "0.7")
	temperature, err := strconv.ParseFloat(temperatureStr, 32)
	if err != nil {
		log.Printf("Warning: Invalid TEMPERATURE '%s', using default 0.7. Error: %v", temperatureStr, err)
		temperature = 0.7
	}

	origins := strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	cfg := &Config{
		HTTPPort:       port,
		AllowedOrigins: origins,
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        redisDB,
		WeaviateHost:   getEnv("WEAVIATE_HOST", "localhost:8081"),
		WeaviateScheme: getEnv("WEAVIATE_SCHEME", "http"),
		WeaviateAPIKey: getEnv("WEAVIATE_API_KEY", ""),
		OpenAIKey:      openAIKey,
		ModelName:      getEnv("MODEL_NAME", "gpt-4o-mini"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		Temperature:    float32(temperature),
	}

	log.Printf("Loaded config: Port=%s, Redis=%s/%d, Weaviate=%s://%s, Model=%s, EmbeddingModel=%s",
		cfg.HTTPPort, cfg.RedisAddr, cfg.RedisDB, cfg.WeaviateScheme, cfg.WeaviateHost, cfg.ModelName, cfg.EmbeddingModel)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}
