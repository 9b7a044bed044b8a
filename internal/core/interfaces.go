// Package core defines the interfaces and shared errors the conversion
// pipeline is built against.
package core

import (
	"context"
	"time"

	"github.com/enterprise-voice/tts-service/internal/job"
)

// Counter names accumulated by the record store.
const (
	CounterTotalJobs     = "total_jobs"
	CounterCompletedJobs = "completed_jobs"
	CounterFailedJobs    = "failed_jobs"
)

// JobStore is the durable, TTL-bounded projection of job state, keyed by job
// id. Create and Update are atomic per key; no further locking is required by
// callers.
type JobStore interface {
	// Create writes the initial record. The record becomes eligible for
	// automatic expiry a fixed window after creation.
	Create(ctx context.Context, j *job.Job) error
	// Get returns the current record, or ErrJobNotFound when the id was
	// never created or has expired.
	Get(ctx context.Context, id string) (*job.Job, error)
	// Update overwrites the record for j.ID.
	Update(ctx context.Context, j *job.Job) error
	// ProcessingJobs returns every record currently in the processing
	// state. Used by the lease sweeper.
	ProcessingJobs(ctx context.Context) ([]*job.Job, error)
	// IncrCounter atomically increments a named statistics counter.
	IncrCounter(ctx context.Context, name string) error
	// Counter reads a named statistics counter; missing counters read 0.
	Counter(ctx context.Context, name string) (int64, error)
}

// JobQueue is the durable FIFO dispatch channel between submission and the
// workers. Each pushed descriptor is delivered to at most one popper.
type JobQueue interface {
	// Push appends a descriptor to the tail of the queue.
	Push(ctx context.Context, j *job.Job) error
	// Pop removes the descriptor at the head of the queue, blocking up to
	// wait when the queue is empty and returning ErrQueueEmpty on timeout.
	// A popped descriptor is never redelivered.
	Pop(ctx context.Context, wait time.Duration) (*job.Job, error)
}

// SynthesisRequest carries the inputs of one synthesis invocation.
type SynthesisRequest struct {
	Text       string
	VoiceID    string
	SampleRate int
	OutputPath string
}

// Synthesizer is the external speech-synthesis capability. Synthesize blocks
// for the full duration of the call and leaves an audio artifact at
// req.OutputPath on success.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) error
}

// TextExtractor is the external document text-extraction capability.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
