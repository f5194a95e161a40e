// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Port       string
	GRPCPort   string // empty disables the gRPC health server
	CORSOrigin string
	LogLevel   string

	LLM       LLMConfig
	Catalog   CatalogConfig
	Search    SearchConfig
	State     StateConfig
	NATSURL   string
	Assistant AssistantConfig
}

// LLMConfig selects and bounds the language-model provider.
type LLMConfig struct {
	Provider      string // ollama | openai
	OllamaURL     string
	OpenAIKey     string
	OpenAIBaseURL string
	EmbedModel    string
	ChatModel     string
	Timeout       time.Duration
	RPS           float64
	Burst         int
}

// CatalogConfig selects where inventory is loaded from.
type CatalogConfig struct {
	Source    string // csv | neo4j
	Path      string
	Neo4jURL  string
	Neo4jUser string
	Neo4jPass string
	Workers   int
}

// SearchConfig selects the ranking index.
type SearchConfig struct {
	Index            string // linear | qdrant
	QdrantURL        string
	QdrantCollection string
	TopK             int
}

// StateConfig selects the conversation state store.
type StateConfig struct {
	Store      string // memory | sqlite | redis
	SQLitePath string
	RedisAddr  string
	RedisTTL   time.Duration
}

// AssistantConfig tunes the turn pipeline.
type AssistantConfig struct {
	ClassifyAttempts int
	AnnualRate       float64
	HistoryTurns     int
}

// Load reads .env (when present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		GRPCPort:   getEnv("GRPC_PORT", "9090"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LLM: LLMConfig{
			Provider:      strings.ToLower(getEnv("LLM_PROVIDER", "ollama")),
			OllamaURL:     getEnv("OLLAMA_URL", "http://localhost:11434"),
			OpenAIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			EmbedModel:    getEnv("EMBED_MODEL", "nomic-embed-text"),
			ChatModel:     getEnv("CHAT_MODEL", "llama3.1:8b"),
			Timeout:       getEnvDuration("LLM_TIMEOUT", 20*time.Second),
			RPS:           getEnvFloat("LLM_RPS", 0),
			Burst:         getEnvInt("LLM_BURST", 4),
		},
		Catalog: CatalogConfig{
			Source:    strings.ToLower(getEnv("CATALOG_SOURCE", "csv")),
			Path:      getEnv("CATALOG_PATH", "./data/catalog.csv"),
			Neo4jURL:  getEnv("NEO4J_URL", "neo4j://localhost:7687"),
			Neo4jUser: getEnv("NEO4J_USER", "neo4j"),
			Neo4jPass: getEnv("NEO4J_PASS", ""),
			Workers:   getEnvInt("CATALOG_WORKERS", 8),
		},
		Search: SearchConfig{
			Index:            strings.ToLower(getEnv("SEARCH_INDEX", "linear")),
			QdrantURL:        getEnv("QDRANT_URL", "localhost:6334"),
			QdrantCollection: getEnv("QDRANT_COLLECTION", "vehicles"),
			TopK:             getEnvInt("TOP_K", 3),
		},
		State: StateConfig{
			Store:      strings.ToLower(getEnv("STATE_STORE", "memory")),
			SQLitePath: getEnv("SQLITE_PATH", "./data/conversations.db"),
			RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
			RedisTTL:   getEnvDuration("REDIS_TTL", 0),
		},
		NATSURL: getEnv("NATS_URL", ""),
		Assistant: AssistantConfig{
			ClassifyAttempts: getEnvInt("CLASSIFY_ATTEMPTS", 2),
			AnnualRate:       getEnvFloat("ANNUAL_RATE", 0.10),
			HistoryTurns:     getEnvInt("HISTORY_TURNS", 3),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerations and required values.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT cannot be empty"))
	}
	switch c.LLM.Provider {
	case "ollama":
		if c.LLM.OllamaURL == "" {
			errs = append(errs, errors.New("OLLAMA_URL cannot be empty"))
		}
	case "openai":
		if c.LLM.OpenAIKey == "" && c.LLM.OpenAIBaseURL == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY or OPENAI_BASE_URL is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q must be ollama or openai", c.LLM.Provider))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT must be > 0"))
	}
	switch c.Catalog.Source {
	case "csv":
		if c.Catalog.Path == "" {
			errs = append(errs, errors.New("CATALOG_PATH cannot be empty"))
		}
	case "neo4j":
		if c.Catalog.Neo4jURL == "" {
			errs = append(errs, errors.New("NEO4J_URL cannot be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("CATALOG_SOURCE %q must be csv or neo4j", c.Catalog.Source))
	}
	switch c.Search.Index {
	case "linear", "qdrant":
	default:
		errs = append(errs, fmt.Errorf("SEARCH_INDEX %q must be linear or qdrant", c.Search.Index))
	}
	if c.Search.TopK < 1 {
		errs = append(errs, errors.New("TOP_K must be >= 1"))
	}
	switch c.State.Store {
	case "memory", "sqlite", "redis":
	default:
		errs = append(errs, fmt.Errorf("STATE_STORE %q must be memory, sqlite or redis", c.State.Store))
	}
	if c.Assistant.ClassifyAttempts < 1 {
		errs = append(errs, errors.New("CLASSIFY_ATTEMPTS must be >= 1"))
	}
	if c.Assistant.AnnualRate < 0 {
		errs = append(errs, errors.New("ANNUAL_RATE must be >= 0"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
