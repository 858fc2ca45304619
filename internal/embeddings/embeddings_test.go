package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatches(t *testing.T) {
	texts := []string{"a", "b", "c", "d", "e"}

	got := Batches(texts, 2)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b"}, got[0])
	assert.Equal(t, []string{"e"}, got[2])

	assert.Len(t, Batches(texts, 0), 1)
	assert.Empty(t, Batches(nil, 4))
}

func TestOpenAIEmbedderOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var body struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"first", "second"}, body.Input)
		assert.Equal(t, "test-model", body.Model)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "test-model",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0.5, 0.25]},
				{"object": "embedding", "index": 0, "embedding": [1, 2]}
			],
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("test-key", srv.URL, "test-model")
	require.NoError(t, err)
	assert.Equal(t, "test-model", e.Model())

	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, Vector{1, 2}, vecs[0])
	assert.Equal(t, Vector{0.5, 0.25}, vecs[1])
}

func TestNewOpenAIEmbedderRequiresCredentials(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "", "")
	assert.Error(t, err)
}
