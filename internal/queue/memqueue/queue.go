// Package memqueue implements the work queue on a buffered channel, for
// local development and tests.
package memqueue

import (
	"context"
	"errors"
	"time"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
)

const defaultCapacity = 1024

// ErrQueueFull indicates the bounded in-memory buffer rejected a push.
var ErrQueueFull = errors.New("queue full")

// Queue is a FIFO channel of serialized descriptors. Channel receives give
// the at-most-one-popper guarantee for free.
type Queue struct {
	entries chan []byte
}

// New creates a Queue; capacity <= 0 selects the default.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	return &Queue{entries: make(chan []byte, capacity)}
}

// Push appends a descriptor to the tail of the queue.
func (q *Queue) Push(_ context.Context, j *job.Job) error {
	data, err := j.Encode()
	if err != nil {
		return err
	}

	select {
	case q.entries <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop removes the descriptor at the head of the queue, blocking up to wait.
func (q *Queue) Pop(ctx context.Context, wait time.Duration) (*job.Job, error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case data := <-q.entries:
		return job.Decode(data)
	case <-timer.C:
		return nil, core.ErrQueueEmpty
	case <-ctx.Done():
		return nil, core.ErrQueueEmpty
	}
}
