package worker

import (
	"context"
	"time"

	"github.com/book-expert/logger"

	"github.com/enterprise-voice/tts-service/internal/core"
)

// leaseExpiredMessage is recorded on jobs reclaimed from a crashed worker.
const leaseExpiredMessage = "worker lease expired"

// Sweeper periodically scans for processing jobs whose lease has expired and
// marks them failed. Without it, a worker crash after pop would leave the
// record stuck at processing until its TTL. Reclaimed jobs are not
// re-queued; failure stays terminal.
type Sweeper struct {
	store    core.JobStore
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper creates a Sweeper; interval <= 0 selects thirty seconds.
func NewSweeper(store core.JobStore, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &Sweeper{store: store, interval: interval, log: log}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	processing, err := s.store.ProcessingJobs(ctx)
	if err != nil {
		s.log.Error("Lease sweep scan failed: %v", err)

		return
	}

	now := time.Now().UTC()

	for _, stuck := range processing {
		if stuck.LeaseExpiresAt == nil || now.Before(*stuck.LeaseExpiresAt) {
			continue
		}

		stuck.MarkFailed(leaseExpiredMessage, now)

		updateErr := s.store.Update(ctx, stuck)
		if updateErr != nil {
			s.log.Error("Failed to reclaim job %s: %v", stuck.ID, updateErr)

			continue
		}

		incrErr := s.store.IncrCounter(ctx, core.CounterFailedJobs)
		if incrErr != nil {
			s.log.Error("Failed to increment counter %s: %v", core.CounterFailedJobs, incrErr)
		}

		s.log.Warn("Reclaimed job %s: %s", stuck.ID, leaseExpiredMessage)
	}
}
