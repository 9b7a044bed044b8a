// Package status implements the read-only status query service.
package status

import (
	"context"
	"strings"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
)

// Result carries the artifact details of a completed job.
type Result struct {
	AudioURL string  `json:"audio_url"`
	Duration float64 `json:"duration"`
	Size     int64   `json:"size"`
}

// Response is the client-facing projection of a job record. Result is set
// only for completed jobs, Error only for failed ones.
type Response struct {
	JobID     string     `json:"job_id"`
	Status    job.Status `json:"status"`
	Progress  int        `json:"progress"`
	CreatedAt string     `json:"created_at"`
	Result    *Result    `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Service projects job records for polling clients. It never mutates state
// and tolerates lookups at any point of the job lifecycle.
type Service struct {
	store      core.JobStore
	publicBase string
}

// NewService creates a Service. publicBase is the fixed public path audio
// artifacts are served under, e.g. "/output".
func NewService(store core.JobStore, publicBase string) *Service {
	return &Service{store: store, publicBase: strings.TrimRight(publicBase, "/")}
}

// Lookup reads the record for jobID and projects it. A missing or expired
// record surfaces core.ErrJobNotFound.
func (s *Service) Lookup(ctx context.Context, jobID string) (*Response, error) {
	record, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	response := &Response{
		JobID:     record.ID,
		Status:    record.Status,
		Progress:  record.Progress,
		CreatedAt: record.CreatedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}

	switch record.Status {
	case job.StatusCompleted:
		response.Result = &Result{
			AudioURL: s.publicBase + "/" + record.OutputFilename,
			Duration: record.Duration,
			Size:     record.Size,
		}
	case job.StatusFailed:
		response.Error = record.Error
	case job.StatusPending, job.StatusProcessing:
		// Nothing beyond the common fields until a terminal state.
	}

	return response, nil
}
