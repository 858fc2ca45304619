package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"overlap-chunk/internal/embeddings"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Advisory lock keeps the gateway and workers from migrating concurrently.
	const lockID = 707370616 // arbitrary number for this application's migration lock

	var acquired bool
	err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired)
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}

	if !acquired {
		// Another service is running migrations; wait briefly and skip
		time.Sleep(2 * time.Second)
		return nil
	}

	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			filename TEXT,
			chunk_size INT NOT NULL,
			overlap_percentage INT NOT NULL DEFAULT 0,
			status TEXT,
			chunk_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			id UUID PRIMARY KEY,
			document_id UUID REFERENCES documents(id) ON DELETE CASCADE,
			ord INT NOT NULL,
			text TEXT NOT NULL,
			start_offset INT NOT NULL,
			end_offset INT NOT NULL,
			UNIQUE (document_id, ord)
		);`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			chunk_id UUID PRIMARY KEY REFERENCES chunks(id) ON DELETE CASCADE,
			vector REAL[] NOT NULL,
			model TEXT
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc Document) (Document, error) {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = StatusProcessing
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents(id, filename, chunk_size, overlap_percentage, status)
		VALUES($1,$2,$3,$4,$5)
		RETURNING created_at`,
		doc.ID, doc.Filename, doc.ChunkSize, doc.OverlapPercentage, doc.Status).Scan(&doc.CreatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id uuid.UUID) (Document, error) {
	doc := Document{ID: id}
	row := s.db.QueryRowContext(ctx, `
		SELECT filename, chunk_size, overlap_percentage, status, chunk_count, created_at
		FROM documents WHERE id=$1`, id)
	if err := row.Scan(&doc.Filename, &doc.ChunkSize, &doc.OverlapPercentage, &doc.Status, &doc.ChunkCount, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrDocumentNotFound
		}
		return Document{}, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return doc, nil
}

func (s *PostgresStore) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status DocumentStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// SaveChunks replaces the document's chunks in one batched insert and
// records the chunk count. Replacing keeps redelivered tasks idempotent.
func (s *PostgresStore) SaveChunks(ctx context.Context, docID uuid.UUID, chunks []Chunk) ([]Chunk, error) {
	out := assignChunkIDs(docID, chunks)
	cols := chunkColumnsOf(out)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id=$1`, docID); err != nil {
		return nil, fmt.Errorf("failed to clear chunks: %w", err)
	}
	if len(out) > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chunks(id, document_id, ord, text, start_offset, end_offset)
			SELECT u.id, $1, u.ord, u.text, u.start_offset, u.end_offset
			FROM unnest($2::uuid[], $3::int[], $4::text[], $5::int[], $6::int[])
				AS u(id, ord, text, start_offset, end_offset)`,
			docID, pq.Array(cols.ids), pq.Array(cols.ords), pq.Array(cols.texts), pq.Array(cols.starts), pq.Array(cols.ends))
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunks: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx, `UPDATE documents SET chunk_count=$1 WHERE id=$2`, len(out), docID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrDocumentNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) ListChunks(ctx context.Context, docID uuid.UUID) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ord, text, start_offset, end_offset
		FROM chunks WHERE document_id=$1 ORDER BY ord`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Index, &c.Text, &c.Start, &c.End); err != nil {
			return nil, err
		}
		c.DocumentID = docID
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveEmbeddings(ctx context.Context, embs []Embedding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, emb := range embs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO embeddings(chunk_id, vector, model)
			VALUES($1,$2::real[],$3)
			ON CONFLICT (chunk_id) DO UPDATE SET vector=excluded.vector, model=excluded.model`,
			emb.ChunkID, pq.Array(vectorToFloat64(emb.Vector)), emb.Model)
		if err != nil {
			return fmt.Errorf("failed to save embedding for chunk %s: %w", emb.ChunkID, err)
		}
	}
	return tx.Commit()
}

type chunkColumns struct {
	ids    []string
	ords   []int64
	texts  []string
	starts []int64
	ends   []int64
}

func assignChunkIDs(docID uuid.UUID, chunks []Chunk) []Chunk {
	out := make([]Chunk, len(chunks))
	for i, c := range chunks {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.DocumentID = docID
		out[i] = c
	}
	return out
}

// chunkColumnsOf pivots chunks into parallel arrays for unnest.
func chunkColumnsOf(chunks []Chunk) chunkColumns {
	cols := chunkColumns{
		ids:    make([]string, len(chunks)),
		ords:   make([]int64, len(chunks)),
		texts:  make([]string, len(chunks)),
		starts: make([]int64, len(chunks)),
		ends:   make([]int64, len(chunks)),
	}
	for i, c := range chunks {
		cols.ids[i] = c.ID.String()
		cols.ords[i] = int64(c.Index)
		cols.texts[i] = c.Text
		cols.starts[i] = int64(c.Start)
		cols.ends[i] = int64(c.End)
	}
	return cols
}

func vectorToFloat64(v embeddings.Vector) []float64 {
	out := make([]float64, len(v))
	for i, val := range v {
		out[i] = float64(val)
	}
	return out
}
