package cache

import (
	"context"
	"encoding/binary"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"overlap-chunk/internal/chunker"
	"overlap-chunk/internal/params"
)

// Cache stores chunking results so identical requests skip the split.
type Cache interface {
	// GetChunks retrieves cached chunks by key; ok is false on a miss.
	GetChunks(ctx context.Context, key string) (chunks []chunker.Chunk, ok bool, err error)

	// SetChunks stores chunks with TTL
	SetChunks(ctx context.Context, key string, chunks []chunker.Chunk, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// Key derives the cache key for text chunked with p. The key carries the
// text's codepoint count next to the digest; hits are still checked with
// Matches before use.
func Key(text string, p params.Params) string {
	d := xxhash.New()
	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[:8], uint64(p.ChunkSize))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(p.OverlapPercentage))
	_, _ = d.Write(hdr[:])
	_, _ = d.WriteString(text)
	return strconv.Itoa(utf8.RuneCountInString(text)) + ":" + strconv.FormatUint(d.Sum64(), 16)
}

// Matches reports whether cached chunks are consistent with text: every
// chunk's text sits at its offsets and the last one ends at the text's end.
func Matches(text string, chunks []chunker.Chunk) bool {
	if text == "" {
		return len(chunks) == 0
	}
	if len(chunks) == 0 {
		return false
	}
	offsets := make([]int, 0, len(text)+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	n := len(offsets)
	offsets = append(offsets, len(text))

	for i, c := range chunks {
		if c.Index != i || c.Start < 0 || c.End > n || c.Start > c.End {
			return false
		}
		if text[offsets[c.Start]:offsets[c.End]] != c.Text {
			return false
		}
	}
	return chunks[len(chunks)-1].End == n
}
