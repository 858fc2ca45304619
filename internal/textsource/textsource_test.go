package textsource

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFromStdin(t *testing.T) {
	text, err := Read("", strings.NewReader("héllo from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "héllo from stdin", text)
}

func TestReadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("日本語のテキスト"), 0o600))

	text, err := Read(path, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "日本語のテキスト", text)
}

func TestReadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.txt")
	_, err := Read(path, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "missing.txt")
}

func TestReadInvalidUTF8(t *testing.T) {
	_, err := Read("", strings.NewReader("bad \xff bytes"))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestDecode(t *testing.T) {
	text, err := Decode("notes.TXT", []byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", text)

	_, err = Decode("broken.pdf", []byte("not really a pdf"))
	assert.Error(t, err)
}

func TestCheckStorable(t *testing.T) {
	assert.NoError(t, CheckStorable("plain 日本語"))
	assert.NoError(t, CheckStorable(""))
	assert.ErrorIs(t, CheckStorable("a\x00b"), ErrNULByte)

	// Decode accepts NUL as valid UTF-8; only storage refuses it.
	text, err := Decode("nul.txt", []byte("a\x00b"))
	require.NoError(t, err)
	assert.ErrorIs(t, CheckStorable(text), ErrNULByte)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("report.pdf"))
	assert.True(t, IsPDF("REPORT.PDF"))
	assert.False(t, IsPDF("report.txt"))
	assert.False(t, IsPDF(""))
}
