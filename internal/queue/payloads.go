package queue

import "github.com/google/uuid"

// ChunkPayload asks a worker to split a document's text.
type ChunkPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
}

// EmbedPayload asks a worker to embed a document's stored chunks.
type EmbedPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
}
