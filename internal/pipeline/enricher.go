package pipeline

import (
	"context"
	"time"

	"docvault-backend/internal/queue"
	"docvault-backend/internal/shared/telemetry"
)

const defaultInlineTimeout = 2 * time.Minute

// InlineEnricher runs the pipeline in a detached goroutine. Used when no
// queue is configured; the upload response returns before analysis finishes.
type InlineEnricher struct {
	Runner  *Runner
	Timeout time.Duration
}

// Schedule starts the enrichment in the background. The caller's context is
// not inherited: the upload request finishing must not cancel the run.
func (e *InlineEnricher) Schedule(_ context.Context, userID, documentID, engine string) error {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = defaultInlineTimeout
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := e.Runner.Process(ctx, userID, documentID, engine); err != nil {
			telemetry.Error("pipeline.inline_failed", map[string]any{
				"user_id":     userID,
				"document_id": documentID,
				"err":         err.Error(),
			})
		}
	}()
	return nil
}

// QueueEnricher publishes enrichment jobs to a queue consumed by the worker.
type QueueEnricher struct {
	Client queue.Client
}

// Schedule sends one message per document.
func (e *QueueEnricher) Schedule(ctx context.Context, userID, documentID, engine string) error {
	return e.Client.Send(ctx, queue.Message{
		DocumentID: documentID,
		UserID:     userID,
		Engine:     engine,
		RequestID:  RequestIDFromContext(ctx),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	})
}

type requestIDKey struct{}

// WithRequestID attaches a request id for cross-process tracing.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the attached request id, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
