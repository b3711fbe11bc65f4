// Package queue provides the FIFO job queue the judge worker consumes.
package queue

import (
	"context"
	"time"
)

// JobQueue is a FIFO queue of serialized judge jobs.
// Pop blocks up to wait and returns ("", nil) when nothing arrived;
// the consumer treats an empty payload as an idle tick.
type JobQueue interface {
	// Pop removes and returns the oldest payload, blocking up to wait.
	Pop(ctx context.Context, wait time.Duration) (string, error)

	// Push appends a payload to the queue. Used by the CLI and by tests;
	// the production enqueue side lives in the API service.
	Push(ctx context.Context, payload string) error

	// Ping verifies the broker connection is alive.
	Ping(ctx context.Context) error

	// Close releases the broker connection.
	Close() error
}
