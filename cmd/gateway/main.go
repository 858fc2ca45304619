package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"overlap-chunk/internal/app"
	"overlap-chunk/internal/chunker"
	"overlap-chunk/internal/httputil"
	"overlap-chunk/internal/params"
	"overlap-chunk/internal/queue"
	"overlap-chunk/internal/service"
	"overlap-chunk/internal/store"
	"overlap-chunk/internal/textsource"
)

type chunkRequest struct {
	Text              string `json:"text"`
	ChunkSize         *int   `json:"chunk_size,omitempty"`
	OverlapPercentage *int   `json:"overlap_percentage,omitempty"`
}

type documentResponse struct {
	DocumentID        string               `json:"document_id"`
	Filename          string               `json:"filename"`
	Status            store.DocumentStatus `json:"status"`
	ChunkSize         int                  `json:"chunk_size"`
	OverlapPercentage int                  `json:"overlap_percentage"`
	ChunkCount        int                  `json:"chunk_count"`
	CreatedAt         time.Time            `json:"created_at"`
}

func main() {
	deps, err := app.Build(app.Store, app.Queue, app.Cache)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Cache.Close()

	chunks := service.NewChunker(deps.Log, deps.Cache, deps.Config.CacheTTL, deps.DefaultParams())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps, chunks),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("gateway listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func newRouter(deps app.Deps, chunks *service.Chunker) http.Handler {
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/chunk", chunkHandler(deps, chunks))
	r.Post("/api/documents/upload", uploadHandler(deps))
	r.Get("/api/documents/{id}", documentHandler(deps))
	r.Get("/api/documents/{id}/chunks", chunksHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	return r
}

func chunkHandler(deps app.Deps, chunks *service.Chunker) http.HandlerFunc {
	maxBody := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		var req chunkRequest
		if err := httputil.DecodeJSON(w, r, maxBody, &req); err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		res, err := chunks.Chunk(r.Context(), req.Text, chunks.Resolve(req.ChunkSize, req.OverlapPercentage))
		if err != nil {
			var verr *params.ValidationError
			if errors.As(err, &verr) {
				httputil.Fail(deps.Log, w, verr.Error(), err, http.StatusBadRequest)
				return
			}
			httputil.Fail(deps.Log, w, "failed to chunk text", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize
	defaults := deps.DefaultParams()

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		// Validate file size before parsing
		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		if !supportedUpload(header.Filename, header.Header.Get("Content-Type")) {
			httputil.Fail(deps.Log, w, "unsupported file type (only PDF and TXT allowed)", nil, http.StatusBadRequest)
			return
		}

		p, err := formParams(r, defaults)
		if err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := textsource.Decode(header.Filename, content)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to extract text: "+err.Error(), err, http.StatusBadRequest)
			return
		}
		if err := textsource.CheckStorable(text); err != nil {
			httputil.Fail(deps.Log, w, err.Error(), err, http.StatusBadRequest)
			return
		}

		doc, err := deps.Store.CreateDocument(ctx, store.Document{
			Filename:          header.Filename,
			ChunkSize:         p.ChunkSize,
			OverlapPercentage: p.OverlapPercentage,
			Status:            store.StatusProcessing,
		})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist document", err, http.StatusInternalServerError)
			return
		}

		body, err := json.Marshal(queue.ChunkPayload{
			DocumentID: doc.ID,
			Filename:   header.Filename,
			Content:    text,
		})
		if err != nil {
			fail(deps, ctx, w, "marshal payload failed", err, doc.ID, http.StatusInternalServerError, true)
			return
		}
		task := queue.Task{Type: queue.TaskTypeChunk, Payload: body}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			if errors.Is(err, queue.ErrPayloadTooLarge) {
				fail(deps, ctx, w, "document text too large to process", err, doc.ID, http.StatusRequestEntityTooLarge, true)
				return
			}
			fail(deps, ctx, w, "failed to enqueue document; please retry", err, doc.ID, http.StatusInternalServerError, true)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, toDocumentResponse(doc))
	}
}

// fail is gateway-specific error handler that can mark documents as failed
func fail(deps app.Deps, ctx context.Context, w http.ResponseWriter, message string, err error, docID uuid.UUID, status int, markFailed bool) {
	log := deps.Log.With("document_id", docID)
	if markFailed && docID != uuid.Nil {
		if upErr := deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark document failed", "err", upErr)
		}
	}

	httputil.Fail(log, w, message, err, status)
}

func documentHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID, ok := parseDocumentID(deps, w, r)
		if !ok {
			return
		}
		doc, err := deps.Store.GetDocument(r.Context(), docID)
		if err != nil {
			failLookup(deps, w, err, docID)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, toDocumentResponse(doc))
	}
}

func chunksHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID, ok := parseDocumentID(deps, w, r)
		if !ok {
			return
		}
		doc, err := deps.Store.GetDocument(r.Context(), docID)
		if err != nil {
			failLookup(deps, w, err, docID)
			return
		}
		if doc.Status == store.StatusProcessing || doc.Status == store.StatusFailed {
			httputil.Fail(deps.Log, w, fmt.Sprintf("chunks not available (status %s)", doc.Status), nil, http.StatusConflict)
			return
		}
		stored, err := deps.Store.ListChunks(r.Context(), docID)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to list chunks", err, http.StatusInternalServerError)
			return
		}
		out := make([]chunker.Chunk, 0, len(stored))
		for _, c := range stored {
			out = append(out, chunker.Chunk{Index: c.Index, Text: c.Text, Start: c.Start, End: c.End})
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"document_id": docID.String(),
			"count":       len(out),
			"chunks":      out,
		})
	}
}

func parseDocumentID(deps app.Deps, w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	docID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Fail(deps.Log, w, "invalid document id", err, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return docID, true
}

func failLookup(deps app.Deps, w http.ResponseWriter, err error, docID uuid.UUID) {
	if errors.Is(err, store.ErrDocumentNotFound) {
		httputil.Fail(deps.Log.With("document_id", docID), w, "document not found", err, http.StatusNotFound)
		return
	}
	httputil.Fail(deps.Log.With("document_id", docID), w, "failed to load document", err, http.StatusInternalServerError)
}

func toDocumentResponse(doc store.Document) documentResponse {
	return documentResponse{
		DocumentID:        doc.ID.String(),
		Filename:          doc.Filename,
		Status:            doc.Status,
		ChunkSize:         doc.ChunkSize,
		OverlapPercentage: doc.OverlapPercentage,
		ChunkCount:        doc.ChunkCount,
		CreatedAt:         doc.CreatedAt,
	}
}

// supportedUpload accepts plain text and PDF, falling back to the file
// extension when the part carries no Content-Type.
func supportedUpload(filename, contentType string) bool {
	if contentType == "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".txt":
			contentType = "text/plain"
		case ".pdf":
			contentType = "application/pdf"
		default:
			return false
		}
	}
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	allowedTypes := map[string]bool{
		"text/plain":      true,
		"application/pdf": true,
	}
	return allowedTypes[contentType]
}

// formParams reads optional chunk_size and overlap_percentage form fields.
func formParams(r *http.Request, defaults params.Params) (params.Params, error) {
	p := defaults
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"chunk_size", &p.ChunkSize},
		{"overlap_percentage", &p.OverlapPercentage},
	} {
		raw := r.FormValue(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return params.Params{}, fmt.Errorf("%s must be an integer", f.name)
		}
		*f.dst = v
	}
	if err := p.Validate(); err != nil {
		return params.Params{}, err
	}
	return p, nil
}
