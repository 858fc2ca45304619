package textsource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrInvalidUTF8 is returned when plain-text input is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

	// ErrNULByte is returned for text that cannot be persisted: Postgres
	// TEXT columns reject U+0000.
	ErrNULByte = errors.New("text contains NUL characters")
)

// Read loads the whole input from path, or from stdin when path is empty.
func Read(path string, stdin io.Reader) (string, error) {
	if path == "" {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text, err := Decode("", content)
		if err != nil {
			return "", fmt.Errorf("stdin: %w", err)
		}
		return text, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file '%s': %w", path, err)
	}
	text, err := Decode(path, content)
	if err != nil {
		return "", fmt.Errorf("file '%s': %w", path, err)
	}
	return text, nil
}

// CheckStorable reports whether text can be stored as a document. The CLI
// chunks NUL characters like any other; stored documents cannot hold them.
func CheckStorable(text string) error {
	if strings.IndexByte(text, 0) >= 0 {
		return ErrNULByte
	}
	return nil
}

// IsPDF reports whether filename names a PDF document.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// Decode turns raw file content into text. PDFs are extracted; anything
// else must already be UTF-8.
func Decode(filename string, content []byte) (string, error) {
	if IsPDF(filename) {
		return ExtractPDF(content)
	}
	if !utf8.Valid(content) {
		return "", ErrInvalidUTF8
	}
	return string(content), nil
}

// ExtractPDF returns the plain text of every readable page, one page per line.
func ExtractPDF(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}
