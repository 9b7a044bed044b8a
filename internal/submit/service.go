// Package submit implements the job submission service: request validation,
// the initial record write, and the queue push.
package submit

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
	"github.com/enterprise-voice/tts-service/internal/voice"
)

// Submission limits. Direct text over the cap is rejected here; text
// acquired downstream is truncated instead.
const (
	MaxTextChars  = 5000
	MaxBatchItems = 50
)

// TextRequest describes a direct-text submission.
type TextRequest struct {
	VoiceID      string `json:"voice_id"`
	Text         string `json:"text"`
	SampleRate   int    `json:"sample_rate"`
	OutputFormat string `json:"output_format"`
}

// DocumentRequest describes a submission referencing a stored upload.
type DocumentRequest struct {
	InputFile  string `json:"input_file"`
	VoiceID    string `json:"voice_id"`
	SampleRate int    `json:"sample_rate"`
}

// BatchItem is one entry of a batch submission. An item voice overrides the
// batch default.
type BatchItem struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

// BatchRequest describes an ordered batch of text submissions.
type BatchRequest struct {
	Items      []BatchItem `json:"items"`
	VoiceID    string      `json:"voice_id"`
	SampleRate int         `json:"sample_rate"`
}

// Receipt is returned immediately on submission; processing happens
// asynchronously.
type Receipt struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// BatchReceipt groups the ids of an accepted batch. The batch has no
// collective state; each job is polled independently.
type BatchReceipt struct {
	BatchID string   `json:"batch_id"`
	JobIDs  []string `json:"job_ids"`
}

// Service validates submissions, writes the pending record, and pushes the
// descriptor onto the work queue. It holds no mutable state and is safe for
// concurrent use.
type Service struct {
	store core.JobStore
	queue core.JobQueue
	log   *logger.Logger
}

// NewService creates a Service.
func NewService(store core.JobStore, queue core.JobQueue, log *logger.Logger) *Service {
	return &Service{store: store, queue: queue, log: log}
}

// SubmitText accepts one direct-text job. Text over MaxTextChars is
// rejected, not truncated.
func (s *Service) SubmitText(ctx context.Context, req TextRequest) (*Receipt, error) {
	err := validateVoice(req.VoiceID)
	if err != nil {
		return nil, err
	}

	if req.Text == "" {
		return nil, &core.ValidationError{Message: "text is required"}
	}

	length := utf8.RuneCountInString(req.Text)
	if length > MaxTextChars {
		return nil, &core.ValidationError{
			Message: fmt.Sprintf("text too long: %d characters (maximum %d)", length, MaxTextChars),
		}
	}

	newJob := job.NewText(req.VoiceID, req.Text, req.SampleRate, req.OutputFormat)

	err = s.enqueue(ctx, newJob)
	if err != nil {
		return nil, err
	}

	return &Receipt{JobID: newJob.ID, Status: "processing"}, nil
}

// SubmitDocument accepts one job referencing a previously stored upload.
// Length enforcement happens downstream, after extraction.
func (s *Service) SubmitDocument(ctx context.Context, req DocumentRequest) (*Receipt, error) {
	if req.InputFile == "" {
		return nil, &core.ValidationError{Message: "input_file is required"}
	}

	voiceID := req.VoiceID
	if voiceID == "" {
		voiceID = voice.DefaultID
	}

	err := validateVoice(voiceID)
	if err != nil {
		return nil, err
	}

	newJob := job.NewDocument(voiceID, req.InputFile, req.SampleRate)

	err = s.enqueue(ctx, newJob)
	if err != nil {
		return nil, err
	}

	return &Receipt{JobID: newJob.ID, Status: "processing"}, nil
}

// SubmitBatch accepts an ordered list of text items sharing one batch id.
// Every item is validated before anything is created, so a rejected batch
// schedules no jobs at all.
func (s *Service) SubmitBatch(ctx context.Context, req BatchRequest) (*BatchReceipt, error) {
	if len(req.Items) == 0 {
		return nil, &core.ValidationError{Message: "items array is required and must not be empty"}
	}

	if len(req.Items) > MaxBatchItems {
		return nil, &core.ValidationError{
			Message: fmt.Sprintf("too many items: %d (maximum %d per batch)", len(req.Items), MaxBatchItems),
		}
	}

	defaultVoice := req.VoiceID
	if defaultVoice == "" {
		defaultVoice = voice.DefaultID
	}

	err := validateVoice(defaultVoice)
	if err != nil {
		return nil, err
	}

	for i, item := range req.Items {
		if item.Text == "" {
			return nil, &core.ValidationError{Message: fmt.Sprintf("item %d: text is required", i)}
		}

		if item.VoiceID != "" {
			voiceErr := validateVoice(item.VoiceID)
			if voiceErr != nil {
				return nil, voiceErr
			}
		}
	}

	batchID := uuid.NewString()
	jobIDs := make([]string, 0, len(req.Items))

	for i, item := range req.Items {
		itemVoice := item.VoiceID
		if itemVoice == "" {
			itemVoice = defaultVoice
		}

		newJob := job.NewBatchItem(batchID, itemVoice, item.Text, req.SampleRate, i)

		err = s.enqueue(ctx, newJob)
		if err != nil {
			return nil, err
		}

		jobIDs = append(jobIDs, newJob.ID)
	}

	return &BatchReceipt{BatchID: batchID, JobIDs: jobIDs}, nil
}

// enqueue writes the pending record, then pushes the descriptor. The two
// operations are deliberately separate; a crash between them leaves a
// pending record that expires with its TTL.
func (s *Service) enqueue(ctx context.Context, newJob *job.Job) error {
	err := newJob.Validate()
	if err != nil {
		return err
	}

	err = s.store.Create(ctx, newJob)
	if err != nil {
		return fmt.Errorf("failed to store job %s: %w", newJob.ID, err)
	}

	err = s.queue.Push(ctx, newJob)
	if err != nil {
		return fmt.Errorf("failed to queue job %s: %w", newJob.ID, err)
	}

	s.log.Info("Queued job %s (%s, voice %s)", newJob.ID, newJob.Kind, newJob.VoiceID)

	return nil
}

func validateVoice(voiceID string) error {
	if voiceID == "" {
		return &core.ValidationError{Message: "voice_id is required", Choices: voice.IDs()}
	}

	_, ok := voice.Lookup(voiceID)
	if !ok {
		return &core.ValidationError{
			Message: fmt.Sprintf("invalid voice_id %q", voiceID),
			Choices: voice.IDs(),
		}
	}

	return nil
}
