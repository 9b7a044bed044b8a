// Package synth invokes the external edge-tts binary to produce audio
// artifacts.
package synth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/book-expert/logger"

	"github.com/enterprise-voice/tts-service/internal/core"
)

const defaultBinary = "edge-tts"

// ErrNoArtifact indicates synthesis reported success but left no usable
// artifact at the output path.
var ErrNoArtifact = errors.New("synthesis produced no artifact")

// EdgeTTS implements core.Synthesizer by calling the edge-tts binary. The
// call is single-shot and blocks for its full duration.
type EdgeTTS struct {
	binary  string
	timeout time.Duration
	log     *logger.Logger
}

// New creates an EdgeTTS synthesizer; an empty binary selects "edge-tts".
func New(binary string, timeout time.Duration, log *logger.Logger) *EdgeTTS {
	if binary == "" {
		binary = defaultBinary
	}

	return &EdgeTTS{binary: binary, timeout: timeout, log: log}
}

// Synthesize produces an audio artifact at req.OutputPath.
func (e *EdgeTTS) Synthesize(ctx context.Context, req core.SynthesisRequest) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// The sample rate is fixed by the neural voice itself; it is carried on
	// the job for API compatibility only.
	args := []string{
		"--voice", req.VoiceID,
		"--rate=+0%",
		"--text", req.Text,
		"--write-media", req.OutputPath,
	}

	// #nosec G204 -- the voice id is validated against the catalog and the
	// output path is derived from the job id.
	cmd := exec.CommandContext(ctx, e.binary, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s execution failed: %w - output: %s", e.binary, err, string(output))
	}

	info, statErr := os.Stat(req.OutputPath)
	if statErr != nil {
		return fmt.Errorf("%w: %s", ErrNoArtifact, req.OutputPath)
	}

	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrNoArtifact, req.OutputPath)
	}

	e.log.Info("Generated speech artifact %s (%d bytes)", req.OutputPath, info.Size())

	return nil
}
