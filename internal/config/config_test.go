package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "MCP_PORT", "LOG_LEVEL", "CHUNK_SIZE", "CHUNK_OVERLAP_PERCENT",
		"STORE_PROVIDER", "QUEUE_PROVIDER", "CACHE_PROVIDER", "CACHE_TTL",
		"EMBEDDINGS_PROVIDER", "EMBEDDING_MODEL", "MAX_UPLOAD_SIZE",
	} {
		// Setenv restores the original value after the test.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"MCPPort", cfg.MCPPort, 9090},
		{"LogLevel", cfg.LogLevel, "info"},
		{"MaxUploadSize", cfg.MaxUploadSize, int64(716800)},
		{"ChunkSize", cfg.ChunkSize, 100},
		{"OverlapPercent", cfg.OverlapPercent, 0},
		{"StoreProvider", cfg.StoreProvider, "postgres"},
		{"QueueProvider", cfg.QueueProvider, "nats"},
		{"CacheProvider", cfg.CacheProvider, "none"},
		{"CacheTTL", cfg.CacheTTL, time.Hour},
		{"EmbeddingsProvider", cfg.EmbeddingsProvider, "none"},
		{"EmbeddingModel", cfg.EmbeddingModel, "text-embedding-3-small"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9091")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CHUNK_SIZE", "256")
	t.Setenv("CHUNK_OVERLAP_PERCENT", "20")
	t.Setenv("CACHE_TTL", "15m")

	cfg := Load()

	if cfg.Port != 9091 {
		t.Errorf("expected port 9091, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.ChunkSize != 256 {
		t.Errorf("expected chunk size 256, got %d", cfg.ChunkSize)
	}
	if cfg.OverlapPercent != 20 {
		t.Errorf("expected overlap 20, got %d", cfg.OverlapPercent)
	}
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("expected cache TTL 15m, got %v", cfg.CacheTTL)
	}
}

func TestLoadProviderOverrides(t *testing.T) {
	t.Setenv("CACHE_PROVIDER", "redis")
	t.Setenv("EMBEDDINGS_PROVIDER", "openai")

	cfg := Load()

	if cfg.CacheProvider != "redis" {
		t.Errorf("expected cache provider 'redis', got %s", cfg.CacheProvider)
	}
	if cfg.EmbeddingsProvider != "openai" {
		t.Errorf("expected embeddings provider 'openai', got %s", cfg.EmbeddingsProvider)
	}
}
