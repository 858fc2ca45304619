package embeddings

import "context"

// Vector is a simple float32 slice wrapper.
type Vector []float32

// Embedder turns chunk texts into vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]Vector, error)
	Model() string
}

// Batches splits texts into consecutive groups of at most size items.
func Batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	var out [][]string
	for start := 0; start < len(texts); start += size {
		out = append(out, texts[start:min(start+size, len(texts))])
	}
	return out
}
