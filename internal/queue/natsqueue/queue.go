// Package natsqueue implements the work queue on a JetStream stream with
// work-queue retention and a durable pull consumer.
package natsqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
)

// Queue delivers each pushed descriptor to at most one popper, in push
// order.
type Queue struct {
	jetstreamContext nats.JetStreamContext
	subject          string
	subscription     *nats.Subscription
}

// New creates or binds the job stream and opens the shared durable pull
// consumer. Work-queue retention removes a message once one consumer acks
// it, so a pop is never broadcast.
func New(jetstreamContext nats.JetStreamContext, streamName, subject, consumerName string) (*Queue, error) {
	_, err := jetstreamContext.AddStream(&nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subject},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
		Replicas:  1,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil, fmt.Errorf("failed to create job stream '%s': %w", streamName, err)
	}

	subscription, err := jetstreamContext.PullSubscribe(subject, consumerName, nats.BindStream(streamName))
	if err != nil {
		return nil, fmt.Errorf("failed to open pull consumer '%s': %w", consumerName, err)
	}

	return &Queue{
		jetstreamContext: jetstreamContext,
		subject:          subject,
		subscription:     subscription,
	}, nil
}

// Push appends a descriptor to the tail of the queue.
func (q *Queue) Push(_ context.Context, j *job.Job) error {
	data, err := j.Encode()
	if err != nil {
		return err
	}

	_, err = q.jetstreamContext.Publish(q.subject, data)
	if err != nil {
		return fmt.Errorf("failed to push job %s: %w", j.ID, err)
	}

	return nil
}

// Pop fetches the descriptor at the head of the queue, blocking up to wait.
// The message is acked on delivery: a popped descriptor is owned by this
// popper and never redelivered.
func (q *Queue) Pop(_ context.Context, wait time.Duration) (*job.Job, error) {
	msgs, err := q.subscription.Fetch(1, nats.MaxWait(wait))
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, core.ErrQueueEmpty
		}

		return nil, fmt.Errorf("failed to fetch from queue: %w", err)
	}

	if len(msgs) == 0 {
		return nil, core.ErrQueueEmpty
	}

	msg := msgs[0]

	popped, decodeErr := job.Decode(msg.Data)
	if decodeErr != nil {
		// An undecodable descriptor can never be processed; drop it.
		_ = msg.Ack()

		return nil, decodeErr
	}

	ackErr := msg.Ack()
	if ackErr != nil {
		return nil, fmt.Errorf("failed to ack job %s: %w", popped.ID, ackErr)
	}

	return popped, nil
}
