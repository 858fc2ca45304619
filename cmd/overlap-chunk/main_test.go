package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlap-chunk/internal/chunker"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestChunksFromStdin(t *testing.T) {
	out, errOut, err := execute(t, "abcdefghij", "-s", "4", "-o", "50")

	require.NoError(t, err)
	assert.Empty(t, errOut)
	assert.Equal(t, "Chunk 1: abcd\nChunk 2: cdef\nChunk 3: efgh\nChunk 4: ghij\n", out)
}

func TestChunksFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("日本語のテキスト"), 0o600))

	out, _, err := execute(t, "ignored", "--size", "3", path)

	require.NoError(t, err)
	assert.Equal(t, "Chunk 1: 日本語\nChunk 2: のテキ\nChunk 3: スト\n", out)
}

func TestDefaultsKeepShortTextWhole(t *testing.T) {
	out, _, err := execute(t, "short text")

	require.NoError(t, err)
	assert.Equal(t, "Chunk 1: short text\n", out)
}

func TestEmptyInputPrintsNothing(t *testing.T) {
	out, _, err := execute(t, "")

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestJSONOutput(t *testing.T) {
	out, _, err := execute(t, "abcdef", "-s", "4", "--json")
	require.NoError(t, err)

	var chunks []chunker.Chunk
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	require.Len(t, chunks, 2)
	assert.Equal(t, chunker.Chunk{Index: 1, Text: "ef", Start: 4, End: 6}, chunks[1])
}

func TestInvalidArguments(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.txt")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"non-numeric size", []string{"-s", "abc"}, "invalid argument"},
		{"zero size", []string{"-s", "0"}, "chunk size must be a positive integer"},
		{"negative size", []string{"--size", "-4"}, "chunk size must be a positive integer"},
		{"overlap above 100", []string{"-o", "101"}, "overlap must be between 0 and 100"},
		{"negative overlap", []string{"--overlap=-1"}, "overlap must be between 0 and 100"},
		{"missing value", []string{"--size"}, "flag needs an argument"},
		{"unknown flag", []string{"--bogus"}, "unknown flag"},
		{"two files", []string{"a.txt", "b.txt"}, "accepts at most 1 arg"},
		{"missing file", []string{missing}, "missing.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, err := execute(t, "some input", tt.args...)

			require.Error(t, err)
			assert.Empty(t, out)
			assert.Contains(t, errOut, tt.want)
			assert.True(t, strings.HasPrefix(errOut, "Error: "), errOut)
		})
	}
}

func TestDebugLoggingGoesToStderr(t *testing.T) {
	out, errOut, err := execute(t, "abcdefgh", "-s", "4", "--log-level", "debug")

	require.NoError(t, err)
	assert.Equal(t, "Chunk 1: abcd\nChunk 2: efgh\n", out)
	assert.Contains(t, errOut, "chunked input")
	assert.Contains(t, errOut, "chunks=2")
}
