// Package memqueue_test tests the in-memory work queue.
package memqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
	"github.com/enterprise-voice/tts-service/internal/queue/memqueue"
)

func TestPushPop_FIFO(t *testing.T) {
	t.Parallel()

	workQueue := memqueue.New(4)
	ctx := context.Background()

	first := job.NewText("en-US-GuyNeural", "first", 0, "")
	second := job.NewText("en-US-GuyNeural", "second", 0, "")
	require.NoError(t, workQueue.Push(ctx, first))
	require.NoError(t, workQueue.Push(ctx, second))

	popped, err := workQueue.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first, popped)

	popped, err = workQueue.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.ID, popped.ID)
}

func TestPop_EmptyTimesOut(t *testing.T) {
	t.Parallel()

	workQueue := memqueue.New(1)

	_, err := workQueue.Pop(context.Background(), 50*time.Millisecond)
	require.ErrorIs(t, err, core.ErrQueueEmpty)
}

func TestPush_Full(t *testing.T) {
	t.Parallel()

	workQueue := memqueue.New(1)
	ctx := context.Background()

	require.NoError(t, workQueue.Push(ctx, job.NewText("en-US-GuyNeural", "a", 0, "")))
	require.ErrorIs(t, workQueue.Push(ctx, job.NewText("en-US-GuyNeural", "b", 0, "")), memqueue.ErrQueueFull)
}
