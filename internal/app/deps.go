package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"overlap-chunk/internal/cache"
	"overlap-chunk/internal/config"
	"overlap-chunk/internal/embeddings"
	"overlap-chunk/internal/logger"
	"overlap-chunk/internal/params"
	"overlap-chunk/internal/queue"
	"overlap-chunk/internal/store"
)

// Component names an optional dependency a service asks Build for.
type Component int

const (
	Store Component = iota
	Queue
	Cache
	Embedder
)

// Deps bundles common runtime dependencies for services. Components that
// were not requested are nil, except Cache which falls back to a no-op.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Store    store.Store
	Queue    queue.Queue
	Cache    cache.Cache
	Embedder embeddings.Embedder
}

// DefaultParams returns the chunking parameters configured for the service.
func (d Deps) DefaultParams() params.Params {
	return params.Params{
		ChunkSize:         d.Config.ChunkSize,
		OverlapPercentage: d.Config.OverlapPercent,
	}
}

// Build loads env, config, and the requested shared components.
func Build(components ...Component) (Deps, error) {
	return build(logger.New, components)
}

// BuildStderr is Build with logs on stderr, for processes whose stdout
// carries a protocol.
func BuildStderr(components ...Component) (Deps, error) {
	return build(func(level string) *slog.Logger {
		return logger.NewText(os.Stderr, level)
	}, components)
}

func build(newLogger func(level string) *slog.Logger, components []Component) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := newLogger(cfg.LogLevel)

	if err := (params.Params{ChunkSize: cfg.ChunkSize, OverlapPercentage: cfg.OverlapPercent}).Validate(); err != nil {
		return Deps{}, fmt.Errorf("invalid default chunking parameters: %w", err)
	}

	deps := Deps{Config: cfg, Log: log, Cache: cache.NewNoOpCache()}
	for _, c := range components {
		var err error
		switch c {
		case Store:
			deps.Store, err = buildStore(cfg, log)
		case Queue:
			deps.Queue, err = buildQueue(cfg, log)
		case Cache:
			deps.Cache = buildCache(cfg, log)
		case Embedder:
			deps.Embedder, err = buildEmbedder(cfg, log)
		}
		if err != nil {
			return Deps{}, err
		}
	}
	return deps, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

// buildCache never fails: an unreachable Redis degrades to the no-op cache.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
		return c
	case "none", "":
		return cache.NewNoOpCache()
	default:
		log.Warn("unknown CACHE_PROVIDER, caching disabled", "provider", cfg.CacheProvider)
		return cache.NewNoOpCache()
	}
}

// buildEmbedder returns a nil Embedder when embeddings are disabled.
func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	switch cfg.EmbeddingsProvider {
	case "openai":
		if cfg.OpenAIKey == "" && cfg.OpenAIBaseURL == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when EMBEDDINGS_PROVIDER=openai")
		}
		embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, cfg.OpenAIBaseURL, openai.EmbeddingModel(cfg.EmbeddingModel))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
		}
		log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
		return embedder, nil
	case "none", "":
		log.Info("embeddings disabled")
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid EMBEDDINGS_PROVIDER: %s (valid options: openai, none)", cfg.EmbeddingsProvider)
	}
}
