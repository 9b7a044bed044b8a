// Package job defines the unit of work tracked by the conversion pipeline.
package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordTTL bounds the lifetime of a job record in the store. Records are
// eligible for automatic expiry after this window regardless of outcome.
const RecordTTL = time.Hour

// Defaults applied when a submission omits synthesis parameters.
const (
	DefaultSampleRate   = 24000
	DefaultOutputFormat = "mp3"
)

// Kind identifies what source material a job converts. The set is closed;
// Validate rejects anything outside it.
type Kind string

const (
	// KindTextToSpeech converts text carried directly on the job.
	KindTextToSpeech Kind = "text_to_speech"
	// KindPDFToSpeech converts text extracted from a stored upload.
	KindPDFToSpeech Kind = "pdf_to_speech"
)

// Status is the lifecycle stage of a job. Transitions are one-directional:
// pending -> processing -> completed | failed.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	// ErrUnknownKind indicates a job descriptor with a type outside the closed set.
	ErrUnknownKind = errors.New("unknown job type")
	// ErrMissingText indicates a text_to_speech job without text.
	ErrMissingText = errors.New("text_to_speech job requires text")
	// ErrMissingInputFile indicates a pdf_to_speech job without an upload reference.
	ErrMissingInputFile = errors.New("pdf_to_speech job requires an input file")
)

// Job is the durable descriptor of one conversion. The same JSON shape is
// pushed onto the work queue and written to the record store.
type Job struct {
	ID             string     `json:"id"`
	Kind           Kind       `json:"type"`
	BatchID        string     `json:"batchId,omitempty"`
	VoiceID        string     `json:"voice_id"`
	Text           string     `json:"text,omitempty"`
	InputFile      string     `json:"inputFile,omitempty"`
	OutputFilename string     `json:"outputFilename"`
	SampleRate     int        `json:"sample_rate"`
	OutputFormat   string     `json:"output_format,omitempty"`
	Status         Status     `json:"status"`
	Progress       int        `json:"progress"`
	Error          string     `json:"error,omitempty"`
	Duration       float64    `json:"duration,omitempty"`
	Size           int64      `json:"size,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	FailedAt       *time.Time `json:"failedAt,omitempty"`
	LeaseExpiresAt *time.Time `json:"leaseExpiresAt,omitempty"`
}

// NewText builds a pending text_to_speech job with a fresh identifier and a
// collision-resistant output filename derived from it.
func NewText(voiceID, text string, sampleRate int, outputFormat string) *Job {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	if outputFormat == "" {
		outputFormat = DefaultOutputFormat
	}

	jobID := uuid.NewString()

	return &Job{
		ID:             jobID,
		Kind:           KindTextToSpeech,
		VoiceID:        voiceID,
		Text:           text,
		OutputFilename: fmt.Sprintf("audio_%s.%s", jobID, outputFormat),
		SampleRate:     sampleRate,
		OutputFormat:   outputFormat,
		Status:         StatusPending,
		Progress:       0,
		CreatedAt:      time.Now().UTC(),
	}
}

// NewDocument builds a pending pdf_to_speech job referencing a stored upload.
func NewDocument(voiceID, inputFile string, sampleRate int) *Job {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	jobID := uuid.NewString()

	return &Job{
		ID:             jobID,
		Kind:           KindPDFToSpeech,
		VoiceID:        voiceID,
		InputFile:      inputFile,
		OutputFilename: fmt.Sprintf("pdf_%s.%s", jobID, DefaultOutputFormat),
		SampleRate:     sampleRate,
		OutputFormat:   DefaultOutputFormat,
		Status:         StatusPending,
		Progress:       0,
		CreatedAt:      time.Now().UTC(),
	}
}

// NewBatchItem builds one pending text_to_speech job belonging to a batch.
// The index keeps output filenames distinct and ordered within the batch.
func NewBatchItem(batchID, voiceID, text string, sampleRate, index int) *Job {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	jobID := uuid.NewString()

	return &Job{
		ID:             jobID,
		Kind:           KindTextToSpeech,
		BatchID:        batchID,
		VoiceID:        voiceID,
		Text:           text,
		OutputFilename: fmt.Sprintf("batch_%s_%d_%s.%s", batchID, index, jobID, DefaultOutputFormat),
		SampleRate:     sampleRate,
		OutputFormat:   DefaultOutputFormat,
		Status:         StatusPending,
		Progress:       0,
		CreatedAt:      time.Now().UTC(),
	}
}

// Validate checks that the descriptor carries the fields its kind requires.
func (j *Job) Validate() error {
	switch j.Kind {
	case KindTextToSpeech:
		if j.Text == "" {
			return fmt.Errorf("%w: job %s", ErrMissingText, j.ID)
		}
	case KindPDFToSpeech:
		if j.InputFile == "" {
			return fmt.Errorf("%w: job %s", ErrMissingInputFile, j.ID)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, j.Kind)
	}

	return nil
}

// IsTerminal reports whether the job reached a final state.
func (j *Job) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// MarkProcessing records pop-ownership of the job: status, the initial
// progress milestone, and a lease the sweeper uses to detect crashed workers.
func (j *Job) MarkProcessing(progress int, leaseExpiry time.Time) {
	j.Status = StatusProcessing
	j.SetProgress(progress)
	j.LeaseExpiresAt = &leaseExpiry
}

// SetProgress advances the progress indicator. Progress never moves backwards.
func (j *Job) SetProgress(progress int) {
	if progress > j.Progress {
		j.Progress = progress
	}
}

// MarkCompleted records a successful synthesis with its accounting fields.
func (j *Job) MarkCompleted(duration float64, size int64, completedAt time.Time) {
	j.Status = StatusCompleted
	j.SetProgress(100)
	j.Duration = duration
	j.Size = size
	j.CompletedAt = &completedAt
	j.LeaseExpiresAt = nil
}

// MarkFailed records a terminal failure with its human-readable cause.
func (j *Job) MarkFailed(message string, failedAt time.Time) {
	j.Status = StatusFailed
	j.Error = message
	j.FailedAt = &failedAt
	j.LeaseExpiresAt = nil
}

// Encode serializes the descriptor for the queue or the record store.
func (j *Job) Encode() ([]byte, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job %s: %w", j.ID, err)
	}

	return data, nil
}

// Decode restores a descriptor from its serialized form.
func Decode(data []byte) (*Job, error) {
	var j Job

	err := json.Unmarshal(data, &j)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal job descriptor: %w", err)
	}

	return &j, nil
}
