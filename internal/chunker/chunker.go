package chunker

import (
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the chunk size used by callers that do not pick one.
	DefaultChunkSize = 100

	// MaxOverlapPercentage is the ceiling overlap percentages are saturated to.
	MaxOverlapPercentage = 100

	minStepSize = 1
)

// Options controls how text is chunked. The zero value means no overlap.
type Options struct {
	// OverlapPercentage is the share of ChunkSize repeated at the start of
	// the next chunk. Values outside [0, 100] are saturated.
	OverlapPercentage int
}

// Chunk represents a slice of the input text.
// Start and End are codepoint offsets, End exclusive.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Len returns the chunk length in codepoints.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Plan holds the window geometry derived from a chunk size and options.
type Plan struct {
	ChunkSize   int
	OverlapSize int
	StepSize    int
}

// NewPlan computes overlap and step sizes. Overlap is rounded half up and
// StepSize is never below one.
func NewPlan(chunkSize int, opts Options) Plan {
	if chunkSize < 0 {
		chunkSize = 0
	}
	pct := min(max(opts.OverlapPercentage, 0), MaxOverlapPercentage)
	// (chunkSize*pct + 50) / 100, split so it cannot overflow.
	overlap := chunkSize/100*pct + (chunkSize%100*pct+50)/100

	step := chunkSize - overlap
	if overlap >= chunkSize {
		step = minStepSize
	}
	return Plan{ChunkSize: chunkSize, OverlapSize: overlap, StepSize: step}
}

// Count returns how many chunks a text of n codepoints yields.
func (p Plan) Count(n int) int {
	switch {
	case n <= 0 || p.ChunkSize <= 0:
		return 0
	case n <= p.ChunkSize:
		return 1
	}
	return (n-p.ChunkSize+p.StepSize-1)/p.StepSize + 1
}

// ChunkText splits text into chunks of at most chunkSize codepoints.
// Empty text or a non-positive chunkSize yields no chunks; text that already
// fits is returned as a single chunk.
func ChunkText(text string, chunkSize int, opts Options) []string {
	chunks := Split(text, chunkSize, opts)
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

// Split is ChunkText with each chunk's index and codepoint offsets.
func Split(text string, chunkSize int, opts Options) []Chunk {
	if text == "" || chunkSize <= 0 {
		return []Chunk{}
	}

	n := utf8.RuneCountInString(text)
	if n <= chunkSize {
		return []Chunk{{Index: 0, Text: text, Start: 0, End: n}}
	}

	// offsets[i] is the byte offset of codepoint i; offsets[n] == len(text).
	offsets := make([]int, 0, n+1)
	for i := range text {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(text))

	plan := NewPlan(chunkSize, opts)
	chunks := make([]Chunk, 0, plan.Count(n))
	for start := 0; start < n; start += plan.StepSize {
		end := min(start+plan.ChunkSize, n)
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  text[offsets[start]:offsets[end]],
			Start: start,
			End:   end,
		})
		if end == n {
			break
		}
	}
	return chunks
}
