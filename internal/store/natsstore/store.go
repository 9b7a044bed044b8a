// Package natsstore implements the job record store on NATS JetStream
// key-value buckets.
package natsstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
)

const counterAttempts = 10

// ErrCounterConflict indicates a counter update kept losing compare-and-set
// races and gave up.
var ErrCounterConflict = errors.New("too many conflicting counter updates")

// Store keeps job records in a TTL bucket and statistics counters in a
// separate non-expiring bucket.
type Store struct {
	records nats.KeyValue
	stats   nats.KeyValue
}

// New creates or binds the record and statistics buckets. The record bucket
// carries the bounded record lifetime; the statistics bucket never expires.
func New(jetstreamContext nats.JetStreamContext, jobBucket, statsBucket string, recordTTL time.Duration) (*Store, error) {
	records, err := openBucket(jetstreamContext, jobBucket, recordTTL)
	if err != nil {
		return nil, err
	}

	stats, err := openBucket(jetstreamContext, statsBucket, 0)
	if err != nil {
		return nil, err
	}

	return &Store{records: records, stats: stats}, nil
}

// openBucket uses a "create-first" approach and binds when the bucket
// already exists.
func openBucket(jetstreamContext nats.JetStreamContext, bucket string, ttl time.Duration) (nats.KeyValue, error) {
	keyValue, err := jetstreamContext.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:      bucket,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucket),
		TTL:         ttl,
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		keyValue, bindErr := jetstreamContext.KeyValue(bucket)
		if bindErr != nil {
			return nil, fmt.Errorf("failed to create key-value bucket '%s': %w", bucket, err)
		}

		return keyValue, nil
	}

	return keyValue, nil
}

// Create writes the initial record. Job ids are never reused, so an existing
// key is an error.
func (s *Store) Create(_ context.Context, j *job.Job) error {
	data, err := j.Encode()
	if err != nil {
		return err
	}

	_, err = s.records.Create(j.ID, data)
	if err != nil {
		return fmt.Errorf("failed to create record for job %s: %w", j.ID, err)
	}

	return nil
}

// Get returns the current record for id.
func (s *Store) Get(_ context.Context, id string) (*job.Job, error) {
	entry, err := s.records.Get(id)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, core.ErrJobNotFound
		}

		return nil, fmt.Errorf("failed to get record for job %s: %w", id, err)
	}

	return job.Decode(entry.Value())
}

// Update overwrites the record for j.ID.
func (s *Store) Update(_ context.Context, j *job.Job) error {
	data, err := j.Encode()
	if err != nil {
		return err
	}

	_, err = s.records.Put(j.ID, data)
	if err != nil {
		return fmt.Errorf("failed to update record for job %s: %w", j.ID, err)
	}

	return nil
}

// ProcessingJobs scans the record bucket for jobs still in the processing
// state.
func (s *Store) ProcessingJobs(ctx context.Context) ([]*job.Job, error) {
	keys, err := s.records.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list record keys: %w", err)
	}

	var processing []*job.Job

	for _, key := range keys {
		record, getErr := s.Get(ctx, key)
		if getErr != nil {
			// Records may expire between Keys and Get.
			if errors.Is(getErr, core.ErrJobNotFound) {
				continue
			}

			return nil, getErr
		}

		if record.Status == job.StatusProcessing {
			processing = append(processing, record)
		}
	}

	return processing, nil
}

// IncrCounter increments a statistics counter with a compare-and-set loop.
func (s *Store) IncrCounter(_ context.Context, name string) error {
	for range counterAttempts {
		entry, err := s.stats.Get(name)
		if errors.Is(err, nats.ErrKeyNotFound) {
			_, createErr := s.stats.Create(name, []byte("1"))
			if createErr == nil {
				return nil
			}

			// Lost the creation race; retry as a plain update.
			continue
		}

		if err != nil {
			return fmt.Errorf("failed to read counter %s: %w", name, err)
		}

		current, parseErr := strconv.ParseInt(string(entry.Value()), 10, 64)
		if parseErr != nil {
			return fmt.Errorf("counter %s holds a non-numeric value: %w", name, parseErr)
		}

		next := strconv.FormatInt(current+1, 10)

		_, updateErr := s.stats.Update(name, []byte(next), entry.Revision())
		if updateErr == nil {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrCounterConflict, name)
}

// Counter reads a statistics counter; a missing counter reads zero.
func (s *Store) Counter(_ context.Context, name string) (int64, error) {
	entry, err := s.stats.Get(name)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to read counter %s: %w", name, err)
	}

	value, parseErr := strconv.ParseInt(string(entry.Value()), 10, 64)
	if parseErr != nil {
		return 0, fmt.Errorf("counter %s holds a non-numeric value: %w", name, parseErr)
	}

	return value, nil
}
