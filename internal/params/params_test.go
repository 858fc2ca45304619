package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		wantErr  bool
		problems int
	}{
		{"defaults", Defaults(), false, 0},
		{"full overlap", Params{ChunkSize: 5, OverlapPercentage: 100}, false, 0},
		{"zero size", Params{ChunkSize: 0}, true, 1},
		{"negative size", Params{ChunkSize: -3}, true, 1},
		{"overlap above 100", Params{ChunkSize: 10, OverlapPercentage: 101}, true, 1},
		{"negative overlap", Params{ChunkSize: 10, OverlapPercentage: -1}, true, 1},
		{"both bad", Params{ChunkSize: 0, OverlapPercentage: 200}, true, 2},
		{"largest size", Params{ChunkSize: MaxChunkSize, OverlapPercentage: 100}, false, 0},
		{"size above limit", Params{ChunkSize: MaxChunkSize + 1}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
			assert.Len(t, verr.Problems, tt.problems)
		})
	}
}

func TestValidateMessages(t *testing.T) {
	err := Params{ChunkSize: 0, OverlapPercentage: 150}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk size must be a positive integer")
	assert.Contains(t, err.Error(), "overlap must be between 0 and 100")
}

func TestValidateSizeLimitMessage(t *testing.T) {
	err := Params{ChunkSize: MaxChunkSize + 1}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk size must be at most 2147483647")
}

func TestChunk(t *testing.T) {
	chunks, err := Params{ChunkSize: 4, OverlapPercentage: 50}.Chunk("abcdefghij")
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Equal(t, "cdef", chunks[1].Text)
	assert.Equal(t, 2, chunks[1].Start)

	_, err = Params{ChunkSize: 4, OverlapPercentage: 101}.Chunk("abcdefghij")
	assert.Error(t, err)
}
