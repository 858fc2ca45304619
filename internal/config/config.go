package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration for the services.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	MCPPort  int    `env:"MCP_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	// 700 KiB: the text travels base64-encoded in a NATS message, and NATS
	// caps messages at 1 MiB by default.
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"716800"`

	// Chunking defaults for requests that omit them
	ChunkSize      int `env:"CHUNK_SIZE" envDefault:"100"`
	OverlapPercent int `env:"CHUNK_OVERLAP_PERCENT" envDefault:"0"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"`
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"`
	QueueURL      string `env:"QUEUE_URL"`

	// Cache
	CacheProvider string        `env:"CACHE_PROVIDER" envDefault:"none"` // "redis" or "none"
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"1h"`

	// Embeddings
	EmbeddingsProvider string `env:"EMBEDDINGS_PROVIDER" envDefault:"none"` // "openai" or "none"
	OpenAIKey          string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL"`
	EmbeddingModel     string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
