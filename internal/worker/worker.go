// Package worker provides the long-running loop that pops jobs from the
// work queue and drives them through the conversion pipeline.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/job"
)

// Progress milestones written while a job is processing.
const (
	progressPopped    = 10
	progressDirect    = 30
	progressExtracted = 50
)

// maxTextChars bounds the text handed to synthesis. Text acquired by the
// pipeline is truncated to this length, never rejected.
const maxTextChars = 5000

// ErrNoTextFound is recorded when document extraction yields nothing. The
// message is part of the status contract surfaced to polling clients.
var ErrNoTextFound = errors.New("No text found in document")

// Options tunes a Worker. Zero durations select the defaults.
type Options struct {
	UploadDir string
	OutputDir string
	PopWait   time.Duration
	Backoff   time.Duration
	LeaseTTL  time.Duration
}

// Worker pops one job at a time and processes it to a terminal state. Any
// number of Worker instances may run against the same queue and store.
type Worker struct {
	store     core.JobStore
	queue     core.JobQueue
	synth     core.Synthesizer
	extractor core.TextExtractor
	opts      Options
	log       *logger.Logger
}

// New creates a Worker.
func New(
	store core.JobStore,
	queue core.JobQueue,
	synth core.Synthesizer,
	extractor core.TextExtractor,
	opts Options,
	log *logger.Logger,
) *Worker {
	if opts.PopWait <= 0 {
		opts.PopWait = 5 * time.Second
	}

	if opts.Backoff <= 0 {
		opts.Backoff = 5 * time.Second
	}

	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = 2 * time.Minute
	}

	return &Worker{
		store:     store,
		queue:     queue,
		synth:     synth,
		extractor: extractor,
		opts:      opts,
		log:       log,
	}
}

// Run blocks popping and processing jobs until ctx is cancelled. The bounded
// pop wait keeps the loop responsive to shutdown; a job already inside the
// pipeline is finished, not aborted. Infrastructure errors back off and
// retry; a job's own failure never stops the loop.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		popped, err := w.queue.Pop(ctx, w.opts.PopWait)
		if err != nil {
			if errors.Is(err, core.ErrQueueEmpty) {
				continue
			}

			if ctx.Err() != nil {
				return nil
			}

			w.log.Error("Queue pop failed: %v", err)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.opts.Backoff):
			}

			continue
		}

		w.Process(ctx, popped)
	}
}

// Process runs the full pipeline for one popped job and records the terminal
// state. Errors are contained in the job record.
func (w *Worker) Process(ctx context.Context, activeJob *job.Job) {
	w.log.Info("Processing job %s (%s)", activeJob.ID, activeJob.Kind)

	started := time.Now()

	activeJob.MarkProcessing(progressPopped, started.Add(w.opts.LeaseTTL).UTC())
	w.writeRecord(ctx, activeJob)

	text, runErr := w.acquireText(ctx, activeJob)
	if runErr == nil {
		runErr = w.synthesize(ctx, activeJob, truncate(text))
	}

	if runErr != nil {
		w.fail(ctx, activeJob, runErr)
	} else {
		w.complete(ctx, activeJob, started)
	}

	// The upload is consumed either way; removal is best-effort.
	w.cleanupUpload(activeJob)
}

// acquireText resolves the text to synthesize according to the job kind and
// reports the matching progress milestone.
func (w *Worker) acquireText(ctx context.Context, activeJob *job.Job) (string, error) {
	switch activeJob.Kind {
	case job.KindTextToSpeech:
		w.advance(ctx, activeJob, progressDirect)

		return activeJob.Text, nil
	case job.KindPDFToSpeech:
		documentPath := filepath.Join(w.opts.UploadDir, activeJob.InputFile)

		text, err := w.extractor.Extract(ctx, documentPath)
		if err != nil {
			return "", fmt.Errorf("failed to extract document text: %w", err)
		}

		if strings.TrimSpace(text) == "" {
			return "", ErrNoTextFound
		}

		w.log.Info("Extracted %d characters from %s", len(text), activeJob.InputFile)
		w.advance(ctx, activeJob, progressExtracted)

		return text, nil
	default:
		return "", fmt.Errorf("%w: %q", job.ErrUnknownKind, activeJob.Kind)
	}
}

func (w *Worker) synthesize(ctx context.Context, activeJob *job.Job, text string) error {
	err := os.MkdirAll(w.opts.OutputDir, 0o750)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	return w.synth.Synthesize(ctx, core.SynthesisRequest{
		Text:       text,
		VoiceID:    activeJob.VoiceID,
		SampleRate: activeJob.SampleRate,
		OutputPath: filepath.Join(w.opts.OutputDir, activeJob.OutputFilename),
	})
}

func (w *Worker) complete(ctx context.Context, activeJob *job.Job, started time.Time) {
	outputPath := filepath.Join(w.opts.OutputDir, activeJob.OutputFilename)

	info, err := os.Stat(outputPath)
	if err != nil {
		w.fail(ctx, activeJob, fmt.Errorf("failed to stat output artifact: %w", err))

		return
	}

	duration := math.Round(time.Since(started).Seconds()*100) / 100

	activeJob.MarkCompleted(duration, info.Size(), time.Now().UTC())
	w.writeRecord(ctx, activeJob)

	w.incrCounter(ctx, core.CounterTotalJobs)
	w.incrCounter(ctx, core.CounterCompletedJobs)

	w.log.Info("Job %s completed in %.2fs (%d bytes)", activeJob.ID, duration, info.Size())
}

func (w *Worker) fail(ctx context.Context, activeJob *job.Job, cause error) {
	activeJob.MarkFailed(cause.Error(), time.Now().UTC())
	w.writeRecord(ctx, activeJob)

	w.incrCounter(ctx, core.CounterFailedJobs)

	w.log.Error("Job %s failed: %v", activeJob.ID, cause)
}

// advance bumps the progress milestone and renews the processing lease.
func (w *Worker) advance(ctx context.Context, activeJob *job.Job, progress int) {
	activeJob.SetProgress(progress)

	leaseExpiry := time.Now().Add(w.opts.LeaseTTL).UTC()
	activeJob.LeaseExpiresAt = &leaseExpiry

	w.writeRecord(ctx, activeJob)
}

func (w *Worker) writeRecord(ctx context.Context, activeJob *job.Job) {
	err := w.store.Update(ctx, activeJob)
	if err != nil {
		w.log.Error("Failed to update record for job %s: %v", activeJob.ID, err)
	}
}

func (w *Worker) incrCounter(ctx context.Context, name string) {
	err := w.store.IncrCounter(ctx, name)
	if err != nil {
		w.log.Error("Failed to increment counter %s: %v", name, err)
	}
}

func (w *Worker) cleanupUpload(activeJob *job.Job) {
	if activeJob.Kind != job.KindPDFToSpeech || activeJob.InputFile == "" {
		return
	}

	uploadPath := filepath.Join(w.opts.UploadDir, activeJob.InputFile)

	err := os.Remove(uploadPath)
	if err != nil {
		w.log.Warn("Could not delete uploaded file %s: %v", uploadPath, err)

		return
	}

	w.log.Info("Cleaned up uploaded file %s", uploadPath)
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxTextChars {
		return text
	}

	return string(runes[:maxTextChars])
}
