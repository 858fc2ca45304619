package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"overlap-chunk/internal/embeddings"
)

type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusChunked    DocumentStatus = "chunked"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

var ErrDocumentNotFound = errors.New("document not found")

// Document is an uploaded text together with the parameters it is chunked with.
type Document struct {
	ID                uuid.UUID
	Filename          string
	ChunkSize         int
	OverlapPercentage int
	Status            DocumentStatus
	ChunkCount        int
	CreatedAt         time.Time
}

// Chunk is a persisted chunk. Start and End are codepoint offsets into the
// document text.
type Chunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Index      int
	Text       string
	Start      int
	End        int
}

type Embedding struct {
	ChunkID uuid.UUID
	Vector  embeddings.Vector
	Model   string
}

// Store defines persistence contract; an external DB implementation can replace this.
type Store interface {
	CreateDocument(ctx context.Context, doc Document) (Document, error)
	GetDocument(ctx context.Context, id uuid.UUID) (Document, error)
	UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error
	SaveChunks(ctx context.Context, docID uuid.UUID, chunks []Chunk) ([]Chunk, error)
	ListChunks(ctx context.Context, docID uuid.UUID) ([]Chunk, error)
	SaveEmbeddings(ctx context.Context, embs []Embedding) error
}
