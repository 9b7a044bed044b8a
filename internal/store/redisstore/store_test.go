// Package redisstore_test tests the Redis record store against a live
// server. Set REDIS_ADDR to run these tests.
package redisstore_test

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
	"github.com/enterprise-voice/tts-service/internal/store/redisstore"
)

func createTestStore(t *testing.T) *redisstore.Store {
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

	return redisstore.New(client, time.Hour)
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	store := createTestStore(t)
	ctx := context.Background()

	created := job.NewText("en-US-GuyNeural", "redis round trip", 0, "")
	require.NoError(t, store.Create(ctx, created))

	stored, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)
	assert.Equal(t, job.StatusPending, stored.Status)
	assert.Equal(t, created.OutputFilename, stored.OutputFilename)
}

func TestGet_MissingJob(t *testing.T) {
	t.Parallel()

	store := createTestStore(t)

	_, err := store.Get(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, core.ErrJobNotFound)
}

func TestUpdate_PreservesRecord(t *testing.T) {
	t.Parallel()

	store := createTestStore(t)
	ctx := context.Background()

	created := job.NewText("en-US-GuyNeural", "update me", 0, "")
	require.NoError(t, store.Create(ctx, created))

	created.MarkProcessing(10, time.Now().Add(time.Minute).UTC())
	require.NoError(t, store.Update(ctx, created))

	stored, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusProcessing, stored.Status)
	assert.Equal(t, 10, stored.Progress)
}

func TestProcessingJobs_FiltersByState(t *testing.T) {
	t.Parallel()

	store := createTestStore(t)
	ctx := context.Background()

	pending := job.NewText("en-US-GuyNeural", "still pending", 0, "")
	require.NoError(t, store.Create(ctx, pending))

	active := job.NewText("en-US-GuyNeural", "in flight", 0, "")
	active.MarkProcessing(30, time.Now().Add(time.Minute).UTC())
	require.NoError(t, store.Create(ctx, active))

	processing, err := store.ProcessingJobs(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(processing))
	for _, record := range processing {
		ids = append(ids, record.ID)
	}

	assert.Contains(t, ids, active.ID)
	assert.NotContains(t, ids, pending.ID)
}

func TestCounters(t *testing.T) {
	t.Parallel()

	store := createTestStore(t)
	ctx := context.Background()

	before, err := store.Counter(ctx, core.CounterCompletedJobs)
	require.NoError(t, err)

	require.NoError(t, store.IncrCounter(ctx, core.CounterCompletedJobs))
	require.NoError(t, store.IncrCounter(ctx, core.CounterCompletedJobs))

	after, err := store.Counter(ctx, core.CounterCompletedJobs)
	require.NoError(t, err)
	assert.Equal(t, before+2, after)
}
