package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Content Radar server and worker.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Extract   ExtractConfig
	Embedding EmbeddingConfig
	Queue     QueueConfig
	Worker    WorkerConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AIConfig struct {
	Provider         string
	Model            string
	FallbackModel    string
	InferenceTimeout time.Duration
	OpenAI           OpenAIConfig
	OpenRouter       OpenRouterConfig
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
}

type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	SiteURL string
	AppName string
}

type ExtractConfig struct {
	FastTimeout   time.Duration
	RobustTimeout time.Duration
	MaxRedirects  int
}

type EmbeddingConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Model   string
}

// QueueConfig tunes retry scheduling. The backoff doubles per attempt from
// Backoff up to BackoffCap; once a job's attempts exceed MaxAttempts it is
// marked failed instead of requeued.
type QueueConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	BackoffCap  time.Duration
}

type WorkerConfig struct {
	Enabled      bool
	PollInterval time.Duration
}

var validProviders = map[string]bool{
	"openai":     true,
	"openrouter": true,
	"mock":       true,
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error with a descriptive message if any required value
// is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("RADAR_PORT", 8080),
			Env:  envString("RADAR_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		AI: AIConfig{
			Provider:         envString("AI_PROVIDER", "openai"),
			Model:            envString("AI_MODEL", "gpt-4o"),
			FallbackModel:    envString("AI_FALLBACK_MODEL", "gpt-4o-mini"),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
			OpenAI: OpenAIConfig{
				APIKey:  os.Getenv("OPENAI_API_KEY"),
				BaseURL: envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			},
			OpenRouter: OpenRouterConfig{
				APIKey:  os.Getenv("OPENROUTER_API_KEY"),
				BaseURL: envString("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
				SiteURL: os.Getenv("OPENROUTER_SITE_URL"),
				AppName: envString("OPENROUTER_APP_NAME", "content-radar"),
			},
		},
		Extract: ExtractConfig{
			FastTimeout:   envDuration("EXTRACT_FAST_TIMEOUT", 5*time.Second),
			RobustTimeout: envDuration("EXTRACT_ROBUST_TIMEOUT", 15*time.Second),
			MaxRedirects:  envInt("EXTRACT_MAX_REDIRECTS", 3),
		},
		Embedding: EmbeddingConfig{
			Enabled: envBool("EMBEDDING_ENABLED", false),
			BaseURL: envString("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  os.Getenv("EMBEDDING_API_KEY"),
			Model:   envString("EMBEDDING_MODEL", "text-embedding-3-small"),
		},
		Queue: QueueConfig{
			MaxAttempts: envInt("QUEUE_MAX_ATTEMPTS", 3),
			Backoff:     envDuration("QUEUE_BACKOFF", 5*time.Second),
			BackoffCap:  envDuration("QUEUE_BACKOFF_CAP", 5*time.Minute),
		},
		Worker: WorkerConfig{
			Enabled:      envBool("WORKER_ENABLED", true),
			PollInterval: envDuration("WORKER_POLL_INTERVAL", 1500*time.Millisecond),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if !validProviders[c.AI.Provider] {
		return fmt.Errorf("AI_PROVIDER must be one of openai, openrouter, mock; got %q", c.AI.Provider)
	}
	if c.AI.Provider == "openai" && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when AI_PROVIDER is openai")
	}
	if c.AI.Provider == "openrouter" && c.AI.OpenRouter.APIKey == "" {
		return fmt.Errorf("OPENROUTER_API_KEY is required when AI_PROVIDER is openrouter")
	}

	if c.Embedding.Enabled {
		if !strings.HasPrefix(c.Embedding.BaseURL, "http://") && !strings.HasPrefix(c.Embedding.BaseURL, "https://") {
			return fmt.Errorf("EMBEDDING_BASE_URL must start with http:// or https://, got %q", c.Embedding.BaseURL)
		}
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("EMBEDDING_API_KEY is required when EMBEDDING_ENABLED is true")
		}
	}

	if c.Queue.MaxAttempts < 1 {
		return fmt.Errorf("QUEUE_MAX_ATTEMPTS must be at least 1")
	}
	if c.Queue.Backoff <= 0 {
		return fmt.Errorf("QUEUE_BACKOFF must be positive")
	}
	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("WORKER_POLL_INTERVAL must be positive")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
