package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"overlap-chunk/internal/app"
	"overlap-chunk/internal/embeddings"
	"overlap-chunk/internal/httputil"
	"overlap-chunk/internal/params"
	"overlap-chunk/internal/queue"
	"overlap-chunk/internal/store"
)

// embedBatchSize bounds the number of inputs per embeddings request.
const embedBatchSize = 64

func main() {
	deps, err := app.Build(app.Store, app.Queue, app.Embedder)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("chunk worker starting", "embeddings", deps.Embedder != nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, deps); err != nil {
		deps.Log.Error("worker stopped", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("worker stopped")
}

// run serves the queue workers and the health endpoint until ctx is
// cancelled or one of them fails.
func run(ctx context.Context, deps app.Deps) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeChunk, chunkTaskHandler(deps))
	})

	if deps.Embedder != nil {
		g.Go(func() error {
			return deps.Queue.Worker(ctx, queue.TaskTypeEmbed, embedTaskHandler(deps))
		})
	}

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps.Log, deps.Config.Port, "worker")
	})

	return g.Wait()
}

func chunkTaskHandler(deps app.Deps) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		var payload queue.ChunkPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			// A malformed payload never succeeds on retry.
			deps.Log.Error("dropping malformed chunk task", "id", task.ID, "err", err)
			return nil
		}
		err := handleChunk(ctx, deps, payload)
		if err != nil && task.LastAttempt() {
			markFailed(ctx, deps, payload.DocumentID)
		}
		return err
	}
}

func embedTaskHandler(deps app.Deps) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		var payload queue.EmbedPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			deps.Log.Error("dropping malformed embed task", "id", task.ID, "err", err)
			return nil
		}
		err := handleEmbed(ctx, deps, payload)
		if err != nil && task.LastAttempt() {
			markFailed(ctx, deps, payload.DocumentID)
		}
		return err
	}
}

func handleChunk(ctx context.Context, deps app.Deps, payload queue.ChunkPayload) error {
	log := deps.Log.With("document_id", payload.DocumentID)

	doc, err := deps.Store.GetDocument(ctx, payload.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	p := params.Params{ChunkSize: doc.ChunkSize, OverlapPercentage: doc.OverlapPercentage}
	chunks, err := p.Chunk(payload.Content)
	if err != nil {
		return err
	}

	storeChunks := make([]store.Chunk, 0, len(chunks))
	for _, c := range chunks {
		storeChunks = append(storeChunks, store.Chunk{
			Index: c.Index,
			Text:  c.Text,
			Start: c.Start,
			End:   c.End,
		})
	}
	if _, err := deps.Store.SaveChunks(ctx, doc.ID, storeChunks); err != nil {
		return err
	}
	log.Info("document chunked", "chunks", len(storeChunks), "chunk_size", p.ChunkSize, "overlap_percentage", p.OverlapPercentage)

	if deps.Embedder == nil || len(storeChunks) == 0 {
		return deps.Store.UpdateDocumentStatus(ctx, doc.ID, store.StatusReady)
	}
	if err := deps.Store.UpdateDocumentStatus(ctx, doc.ID, store.StatusChunked); err != nil {
		return err
	}

	body, err := json.Marshal(queue.EmbedPayload{DocumentID: doc.ID})
	if err != nil {
		return err
	}
	task := queue.Task{Type: queue.TaskTypeEmbed, Payload: body, NotBefore: time.Now()}
	return queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond)
}

func handleEmbed(ctx context.Context, deps app.Deps, payload queue.EmbedPayload) error {
	chunks, err := deps.Store.ListChunks(ctx, payload.DocumentID)
	if err != nil {
		return err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors := make([]embeddings.Vector, 0, len(texts))
	for _, batch := range embeddings.Batches(texts, embedBatchSize) {
		out, err := deps.Embedder.Embed(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(out) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d inputs", len(out), len(batch))
		}
		vectors = append(vectors, out...)
	}

	embs := make([]store.Embedding, len(chunks))
	for i, c := range chunks {
		embs[i] = store.Embedding{
			ChunkID: c.ID,
			Vector:  vectors[i],
			Model:   deps.Embedder.Model(),
		}
	}
	if err := deps.Store.SaveEmbeddings(ctx, embs); err != nil {
		return err
	}

	// Mark document ready
	return deps.Store.UpdateDocumentStatus(ctx, payload.DocumentID, store.StatusReady)
}

func markFailed(ctx context.Context, deps app.Deps, docID uuid.UUID) {
	if docID == uuid.Nil {
		return
	}
	if err := deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusFailed); err != nil {
		deps.Log.Error("failed to mark document failed", "document_id", docID, "err", err)
	}
}
