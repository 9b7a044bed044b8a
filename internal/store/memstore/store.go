// Package memstore implements the job record store in process memory, for
// local development and tests.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
)

// ErrRecordExists indicates an attempt to create a record for an id that is
// already present.
var ErrRecordExists = fmt.Errorf("record already exists")

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Store keeps records and counters in maps. Expiry is enforced lazily on
// read, matching the bounded-lifetime contract of the durable backends.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	records  map[string]entry
	counters map[string]int64
}

// New creates a Store whose records expire recordTTL after creation.
func New(recordTTL time.Duration) *Store {
	return &Store{
		ttl:      recordTTL,
		records:  make(map[string]entry),
		counters: make(map[string]int64),
	}
}

// Create writes the initial record.
func (s *Store) Create(_ context.Context, j *job.Job) error {
	data, err := j.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[j.ID]; exists {
		return fmt.Errorf("%w: %s", ErrRecordExists, j.ID)
	}

	s.records[j.ID] = entry{data: data, expiresAt: time.Now().Add(s.ttl)}

	return nil
}

// Get returns the current record for id.
func (s *Store) Get(_ context.Context, id string) (*job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[id]
	if !ok {
		return nil, core.ErrJobNotFound
	}

	if time.Now().After(stored.expiresAt) {
		delete(s.records, id)

		return nil, core.ErrJobNotFound
	}

	return job.Decode(stored.data)
}

// Update overwrites the record, keeping the expiry set at creation.
func (s *Store) Update(_ context.Context, j *job.Job) error {
	data, err := j.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[j.ID]
	if !ok {
		stored = entry{expiresAt: time.Now().Add(s.ttl)}
	}

	stored.data = data
	s.records[j.ID] = stored

	return nil
}

// ProcessingJobs returns every record currently in the processing state.
func (s *Store) ProcessingJobs(ctx context.Context) ([]*job.Job, error) {
	s.mu.Lock()
	ids := make([]string, 0, len(s.records))

	for id := range s.records {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	var processing []*job.Job

	for _, id := range ids {
		record, err := s.Get(ctx, id)
		if err != nil {
			continue
		}

		if record.Status == job.StatusProcessing {
			processing = append(processing, record)
		}
	}

	return processing, nil
}

// IncrCounter increments a statistics counter.
func (s *Store) IncrCounter(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[name]++

	return nil
}

// Counter reads a statistics counter; a missing counter reads zero.
func (s *Store) Counter(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counters[name], nil
}
