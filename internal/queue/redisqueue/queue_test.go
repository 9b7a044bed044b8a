// Package redisqueue_test tests the Redis work queue against a live server.
// Set REDIS_ADDR to run these tests.
package redisqueue_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
	"github.com/enterprise-voice/tts-service/internal/queue/redisqueue"
)

func createTestQueue(t *testing.T) *redisqueue.Queue {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		_ = client.Close()
	})

	err := client.Ping(context.Background()).Err()
	require.NoError(t, err)

	// Each test gets its own list key to stay isolated.
	return redisqueue.New(client, "tts:jobs:test:"+uuid.NewString())
}

func TestPushPop_RoundTrip(t *testing.T) {
	t.Parallel()

	queue := createTestQueue(t)
	ctx := context.Background()

	pushed := job.NewText("en-US-GuyNeural", "through redis", 0, "")
	require.NoError(t, queue.Push(ctx, pushed))

	popped, err := queue.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, pushed.ID, popped.ID)
	assert.Equal(t, pushed.Text, popped.Text)
}

func TestPop_FIFOOrder(t *testing.T) {
	t.Parallel()

	queue := createTestQueue(t)
	ctx := context.Background()

	first := job.NewText("en-US-GuyNeural", "first", 0, "")
	second := job.NewText("en-US-GuyNeural", "second", 0, "")

	require.NoError(t, queue.Push(ctx, first))
	require.NoError(t, queue.Push(ctx, second))

	popped, err := queue.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, popped.ID)

	popped, err = queue.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.ID, popped.ID)
}

func TestPop_EmptyTimesOut(t *testing.T) {
	t.Parallel()

	queue := createTestQueue(t)

	_, err := queue.Pop(context.Background(), time.Second)
	require.ErrorIs(t, err, core.ErrQueueEmpty)
}
