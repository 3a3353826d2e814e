package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Checkpoint backend names accepted by CHECKPOINT_BACKEND.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds all runtime settings, loaded from environment variables.
type Config struct {
	// Language model.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// Web search.
	TavilyAPIKey string

	// Checkpointing.
	CheckpointBackend string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	PostgresURL       string
	SQLitePath        string

	// Knowledge base.
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	EmbeddingModel   string
	EmbeddingBaseURL string
	TopK             int

	// Timeouts for external calls.
	LLMTimeout    time.Duration
	SearchTimeout time.Duration

	// Workflow.
	MaxRetries    int
	SearchResults int

	// Server.
	ServerAddr string
	LogLevel   string
}

// Load reads the configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		TavilyAPIKey: os.Getenv("TAVILY_API_KEY"),

		CheckpointBackend: getEnv("CHECKPOINT_BACKEND", BackendRedis),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		PostgresURL:       os.Getenv("POSTGRES_URL"),
		SQLitePath:        getEnv("SQLITE_PATH", "adaptiverag.db"),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "documents"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", os.Getenv("OPENAI_BASE_URL")),
		TopK:             getEnvInt("TOP_K", 4),

		LLMTimeout:    getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		SearchTimeout: getEnvDuration("SEARCH_TIMEOUT", 30*time.Second),

		MaxRetries:    getEnvInt("MAX_RETRIES", 3),
		SearchResults: getEnvInt("SEARCH_RESULTS", 5),

		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

// Validate fails fast on missing required keys and inconsistent settings.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.TavilyAPIKey == "" {
		return fmt.Errorf("TAVILY_API_KEY is required")
	}

	switch c.CheckpointBackend {
	case BackendMemory, BackendRedis, BackendSQLite:
	case BackendPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown checkpoint backend %q", c.CheckpointBackend)
	}

	if c.MaxRetries < 1 || c.MaxRetries > 5 {
		return fmt.Errorf("MAX_RETRIES must be between 1 and 5")
	}
	if c.LLMTimeout <= 0 || c.SearchTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT and SEARCH_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
