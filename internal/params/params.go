package params

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"overlap-chunk/internal/chunker"
)

// MaxChunkSize is the largest accepted chunk size (math.MaxInt32).
const MaxChunkSize = 2147483647

// Params are the caller-facing chunking parameters.
type Params struct {
	ChunkSize         int `json:"chunk_size" validate:"gt=0,lte=2147483647"`
	OverlapPercentage int `json:"overlap_percentage" validate:"gte=0,lte=100"`
}

// Defaults returns the parameters used when a caller supplies none.
func Defaults() Params {
	return Params{ChunkSize: chunker.DefaultChunkSize}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Validate checks p and returns a *ValidationError describing every bad field.
func (p Params) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Problems = append(out.Problems, describe(fe))
	}
	return out
}

// Options converts p to chunker options.
func (p Params) Options() chunker.Options {
	return chunker.Options{OverlapPercentage: p.OverlapPercentage}
}

// Chunk validates p and splits text with it.
func (p Params) Chunk(text string) ([]chunker.Chunk, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return chunker.Split(text, p.ChunkSize, p.Options()), nil
}

func describe(fe validator.FieldError) string {
	switch fe.Field() {
	case "ChunkSize":
		if fe.Tag() == "lte" {
			return fmt.Sprintf("chunk size must be at most %d (got %v)", MaxChunkSize, fe.Value())
		}
		return fmt.Sprintf("chunk size must be a positive integer (got %v)", fe.Value())
	case "OverlapPercentage":
		return fmt.Sprintf("overlap must be between 0 and 100 (got %v)", fe.Value())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
