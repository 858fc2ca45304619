package service

import (
	"context"
	"log/slog"
	"time"

	"overlap-chunk/internal/cache"
	"overlap-chunk/internal/chunker"
	"overlap-chunk/internal/params"
)

// Result is a chunking outcome together with the geometry that produced it.
type Result struct {
	ChunkSize         int             `json:"chunk_size"`
	OverlapPercentage int             `json:"overlap_percentage"`
	OverlapSize       int             `json:"overlap_size"`
	StepSize          int             `json:"step_size"`
	Count             int             `json:"count"`
	Cached            bool            `json:"cached"`
	Chunks            []chunker.Chunk `json:"chunks"`
}

// Chunker splits text synchronously, consulting the cache first.
type Chunker struct {
	log      *slog.Logger
	cache    cache.Cache
	ttl      time.Duration
	defaults params.Params
}

func NewChunker(log *slog.Logger, c cache.Cache, ttl time.Duration, defaults params.Params) *Chunker {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	return &Chunker{log: log, cache: c, ttl: ttl, defaults: defaults}
}

// Resolve fills unset parameters from the service defaults.
func (s *Chunker) Resolve(chunkSize, overlap *int) params.Params {
	p := s.defaults
	if chunkSize != nil {
		p.ChunkSize = *chunkSize
	}
	if overlap != nil {
		p.OverlapPercentage = *overlap
	}
	return p
}

// Chunk validates p and splits text. Cache failures are logged and ignored.
func (s *Chunker) Chunk(ctx context.Context, text string, p params.Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	plan := chunker.NewPlan(p.ChunkSize, p.Options())
	res := Result{
		ChunkSize:         p.ChunkSize,
		OverlapPercentage: p.OverlapPercentage,
		OverlapSize:       plan.OverlapSize,
		StepSize:          plan.StepSize,
	}

	key := cache.Key(text, p)
	cached, ok, err := s.cache.GetChunks(ctx, key)
	if err != nil {
		s.log.Warn("chunk cache lookup failed", "err", err)
	}
	if ok && !cache.Matches(text, cached) {
		s.log.Warn("discarding cached chunks that do not match the text", "key", key)
		ok = false
	}
	if ok {
		res.Chunks, res.Count, res.Cached = cached, len(cached), true
		return res, nil
	}

	res.Chunks = chunker.Split(text, p.ChunkSize, p.Options())
	res.Count = len(res.Chunks)
	if err := s.cache.SetChunks(ctx, key, res.Chunks, s.ttl); err != nil {
		s.log.Warn("chunk cache store failed", "err", err)
	}
	return res, nil
}
