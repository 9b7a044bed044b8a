// Package backend wires the configured store and queue backing for the
// server and worker binaries.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/enterprise-voice/tts-service/internal/config"
	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
	"github.com/enterprise-voice/tts-service/internal/queue/memqueue"
	"github.com/enterprise-voice/tts-service/internal/queue/natsqueue"
	"github.com/enterprise-voice/tts-service/internal/queue/redisqueue"
	"github.com/enterprise-voice/tts-service/internal/store/memstore"
	"github.com/enterprise-voice/tts-service/internal/store/natsstore"
	"github.com/enterprise-voice/tts-service/internal/store/redisstore"
)

// ErrUnknownBackend indicates a backend kind outside {nats, redis, memory}.
var ErrUnknownBackend = errors.New("unknown backend kind")

// Backend bundles the job record store and work queue sharing one backing
// connection.
type Backend struct {
	Store core.JobStore
	Queue core.JobQueue

	closeFn func()
}

// Open connects the backend named by cfg.Backend.Kind. "nats" is the
// default.
func Open(cfg *config.Config, log *logger.Logger) (*Backend, error) {
	switch cfg.Backend.Kind {
	case "", "nats":
		return openNATS(cfg, log)
	case "redis":
		return openRedis(cfg, log)
	case "memory":
		return &Backend{
			Store:   memstore.New(job.RecordTTL),
			Queue:   memqueue.New(0),
			closeFn: func() {},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend.Kind)
	}
}

// Close releases the backing connection.
func (b *Backend) Close() {
	if b.closeFn != nil {
		b.closeFn()
	}
}

func openNATS(cfg *config.Config, log *logger.Logger) (*Backend, error) {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		natsConnection.Close()

		return nil, fmt.Errorf("failed to open JetStream context: %w", err)
	}

	store, err := natsstore.New(jetstreamContext, cfg.NATS.JobBucket, cfg.NATS.StatsBucket, job.RecordTTL)
	if err != nil {
		natsConnection.Close()

		return nil, err
	}

	workQueue, err := natsqueue.New(jetstreamContext, cfg.NATS.JobStreamName, cfg.NATS.JobSubject, cfg.NATS.JobConsumerName)
	if err != nil {
		natsConnection.Close()

		return nil, err
	}

	log.Info("Connected to NATS backend at %s", cfg.NATS.URL)

	return &Backend{
		Store:   store,
		Queue:   workQueue,
		closeFn: natsConnection.Close,
	}, nil
}

func openRedis(cfg *config.Config, log *logger.Logger) (*Backend, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	err := client.Ping(context.Background()).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
	}

	log.Info("Connected to Redis backend at %s", cfg.Redis.Addr)

	return &Backend{
		Store: redisstore.New(client, job.RecordTTL),
		Queue: redisqueue.New(client, ""),
		closeFn: func() {
			_ = client.Close()
		},
	}, nil
}
