package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"overlap-chunk/internal/retry"
)

// TaskType enumerates supported task categories.
type TaskType string

const (
	TaskTypeChunk TaskType = "chunk"
	TaskTypeEmbed TaskType = "embed"
)

// ErrPayloadTooLarge is returned when an encoded task exceeds what the
// broker accepts. Retrying cannot help.
var ErrPayloadTooLarge = errors.New("task exceeds broker payload limit")

// DefaultMaxAttempts applies to tasks that do not set MaxAttempts.
const DefaultMaxAttempts = 5

// Task represents a unit of work handed to a worker.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

// LastAttempt reports whether a failure of the current attempt is final.
func (t Task) LastAttempt() bool {
	limit := t.MaxAttempts
	if limit == 0 {
		limit = DefaultMaxAttempts
	}
	return t.Attempts+1 >= limit
}

type Handler func(context.Context, Task) error

// Queue exposes a minimal contract to enqueue and consume tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
}

// EnqueueWithRetry attempts to enqueue with retries and exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if err := q.Enqueue(ctx, task); err == nil {
			return nil
		} else if attempt == attempts-1 || errors.Is(err, ErrPayloadTooLarge) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.ExponentialBackoff(attempt, base)):
		}
	}
	return nil
}
