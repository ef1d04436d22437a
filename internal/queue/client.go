package queue

import "context"

// Client hands analysis jobs to a queue backend. Implementations must be
// safe for concurrent use; the upload path sends from request goroutines.
type Client interface {
	Send(ctx context.Context, msg Message) error
}
