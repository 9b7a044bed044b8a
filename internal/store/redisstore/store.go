// Package redisstore implements the job record store on Redis, with the
// job:{id} key scheme and stats:* counters of the original deployment.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
)

const (
	jobKeyPrefix   = "job:"
	statsKeyPrefix = "stats:"
)

func jobKey(id string) string { return jobKeyPrefix + id }

func statsKey(name string) string { return statsKeyPrefix + name }

// Store keeps job records as JSON strings with a TTL set at creation and
// preserved across updates.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a Store. The caller owns the Redis client lifecycle.
func New(client *redis.Client, recordTTL time.Duration) *Store {
	return &Store{client: client, ttl: recordTTL}
}

// Create writes the initial record with the bounded record lifetime.
func (s *Store) Create(ctx context.Context, j *job.Job) error {
	data, err := j.Encode()
	if err != nil {
		return err
	}

	err = s.client.Set(ctx, jobKey(j.ID), data, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to create record for job %s: %w", j.ID, err)
	}

	return nil
}

// Get returns the current record for id.
func (s *Store) Get(ctx context.Context, id string) (*job.Job, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrJobNotFound
		}

		return nil, fmt.Errorf("failed to get record for job %s: %w", id, err)
	}

	return job.Decode(data)
}

// Update overwrites the record, keeping the expiry set at creation.
func (s *Store) Update(ctx context.Context, j *job.Job) error {
	data, err := j.Encode()
	if err != nil {
		return err
	}

	err = s.client.Set(ctx, jobKey(j.ID), data, redis.KeepTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to update record for job %s: %w", j.ID, err)
	}

	return nil
}

// ProcessingJobs scans the record keyspace for jobs still in the processing
// state.
func (s *Store) ProcessingJobs(ctx context.Context) ([]*job.Job, error) {
	var processing []*job.Job

	iter := s.client.Scan(ctx, 0, jobKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			// Records may expire between Scan and Get.
			if errors.Is(err, redis.Nil) {
				continue
			}

			return nil, fmt.Errorf("failed to get record %s: %w", iter.Val(), err)
		}

		record, decodeErr := job.Decode(data)
		if decodeErr != nil {
			return nil, decodeErr
		}

		if record.Status == job.StatusProcessing {
			processing = append(processing, record)
		}
	}

	err := iter.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}

	return processing, nil
}

// IncrCounter increments a statistics counter.
func (s *Store) IncrCounter(ctx context.Context, name string) error {
	err := s.client.Incr(ctx, statsKey(name)).Err()
	if err != nil {
		return fmt.Errorf("failed to increment counter %s: %w", name, err)
	}

	return nil
}

// Counter reads a statistics counter; a missing counter reads zero.
func (s *Store) Counter(ctx context.Context, name string) (int64, error) {
	value, err := s.client.Get(ctx, statsKey(name)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to read counter %s: %w", name, err)
	}

	return value, nil
}
