package cache

import (
	"context"
	"time"

	"overlap-chunk/internal/chunker"
)

// NoOpCache is a cache implementation that does nothing.
// Used when CACHE_PROVIDER=none or Redis is unavailable: every lookup misses.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache instance
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// GetChunks always misses
func (c *NoOpCache) GetChunks(ctx context.Context, key string) ([]chunker.Chunk, bool, error) {
	return nil, false, nil
}

// SetChunks does nothing and always succeeds
func (c *NoOpCache) SetChunks(ctx context.Context, key string, chunks []chunker.Chunk, ttl time.Duration) error {
	return nil
}

// Close does nothing and always succeeds
func (c *NoOpCache) Close() error {
	return nil
}
