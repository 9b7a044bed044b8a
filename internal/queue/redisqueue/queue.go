// Package redisqueue implements the work queue on a Redis list, with the
// tts:jobs LPUSH/BRPOP discipline of the original deployment.
package redisqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
)

// DefaultKey is the list key holding serialized job descriptors.
const DefaultKey = "tts:jobs"

// Queue delivers each pushed descriptor to at most one popper, in push
// order. BRPOP is atomic, so concurrent workers never share a descriptor.
type Queue struct {
	client *redis.Client
	key    string
}

// New creates a Queue on the given list key; an empty key selects
// DefaultKey. The caller owns the Redis client lifecycle.
func New(client *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}

	return &Queue{client: client, key: key}
}

// Push appends a descriptor to the tail of the queue.
func (q *Queue) Push(ctx context.Context, j *job.Job) error {
	data, err := j.Encode()
	if err != nil {
		return err
	}

	err = q.client.LPush(ctx, q.key, data).Err()
	if err != nil {
		return fmt.Errorf("failed to push job %s: %w", j.ID, err)
	}

	return nil
}

// Pop removes the descriptor at the head of the queue, blocking up to wait.
func (q *Queue) Pop(ctx context.Context, wait time.Duration) (*job.Job, error) {
	result, err := q.client.BRPop(ctx, wait, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrQueueEmpty
		}

		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	// BRPOP returns the key followed by the popped element.
	return job.Decode([]byte(result[1]))
}
