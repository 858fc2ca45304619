package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"overlap-chunk/internal/retry"
)

const subjectPrefix = "chunking.tasks."

// NewNATS constructs a thin NATS-based queue.
func NewNATS(log *slog.Logger, nc *nats.Conn) Queue {
	return &natsQueue{log: log, nc: nc}
}

type natsQueue struct {
	log *slog.Logger
	nc  *nats.Conn
}

func subject(taskType TaskType) string {
	return subjectPrefix + string(taskType)
}

func (q *natsQueue) Enqueue(_ context.Context, task Task) error {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Type == "" {
		return errors.New("task type required")
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := checkPayloadSize(len(body), q.nc.MaxPayload()); err != nil {
		return err
	}
	return q.nc.Publish(subject(task.Type), body)
}

// checkPayloadSize rejects messages over the server's max_payload. A limit
// of zero means unknown, e.g. before the connection has been established.
func checkPayloadSize(size int, limit int64) error {
	if limit > 0 && int64(size) > limit {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, size, limit)
	}
	return nil
}

func (q *natsQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	group := "chunk-workers-" + string(taskType)
	sub, err := q.nc.QueueSubscribe(subject(taskType), group, func(msg *nats.Msg) {
		q.handleMessage(ctx, msg, handler)
	})
	if err != nil {
		return err
	}
	q.log.Info("worker subscribed", "subject", subject(taskType), "group", group)
	<-ctx.Done()
	return sub.Unsubscribe()
}

func (q *natsQueue) handleMessage(ctx context.Context, msg *nats.Msg, handler Handler) {
	var task Task
	if err := json.Unmarshal(msg.Data, &task); err != nil {
		q.log.Error("failed to decode task", "err", err)
		return
	}

	if wait := time.Until(task.NotBefore); wait > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}

	if err := handler(ctx, task); err != nil {
		q.retryTask(ctx, task, err)
	}
}

func (q *natsQueue) retryTask(ctx context.Context, task Task, handlerErr error) {
	if task.LastAttempt() {
		q.log.Error("task permanently failed", "id", task.ID, "type", task.Type, "attempts", task.Attempts+1, "original_err", handlerErr)
		return
	}
	task.Attempts++
	if task.MaxAttempts == 0 {
		task.MaxAttempts = DefaultMaxAttempts
	}
	task.NotBefore = time.Now().Add(retry.ExponentialBackoff(task.Attempts, time.Second))
	if err := q.Enqueue(ctx, task); err != nil {
		q.log.Error("failed to re-enqueue task after failure", "id", task.ID, "type", task.Type, "original_err", handlerErr, "enqueue_err", err)
		return
	}
	q.log.Warn("task failed, retrying", "id", task.ID, "type", task.Type, "attempt", task.Attempts, "err", handlerErr)
}
