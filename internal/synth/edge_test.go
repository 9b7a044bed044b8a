// Package synth_test tests the edge-tts invocation using stand-in scripts.
package synth_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enterprise-voice/tts-service/internal/core"
	"github.com/enterprise-voice/tts-service/internal/synth"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fake-edge-tts")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700))

	return path
}

func createSynthesizer(t *testing.T, binary string) *synth.EdgeTTS {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "test-log.log")
	require.NoError(t, err)

	return synth.New(binary, 10*time.Second, testLogger)
}

func synthesisRequest(t *testing.T) core.SynthesisRequest {
	t.Helper()

	return core.SynthesisRequest{
		Text:       "Hello",
		VoiceID:    "en-US-GuyNeural",
		SampleRate: 24000,
		OutputPath: filepath.Join(t.TempDir(), "out.mp3"),
	}
}

func TestSynthesize_WritesArtifact(t *testing.T) {
	t.Parallel()

	// The output path is the argument after --write-media.
	binary := writeScript(t, `printf 'audio bytes' > "$7"`)
	synthesizer := createSynthesizer(t, binary)
	req := synthesisRequest(t)

	err := synthesizer.Synthesize(context.Background(), req)
	require.NoError(t, err)
	assert.FileExists(t, req.OutputPath)
}

func TestSynthesize_MissingBinaryFails(t *testing.T) {
	t.Parallel()

	synthesizer := createSynthesizer(t, filepath.Join(t.TempDir(), "no-such-binary"))

	err := synthesizer.Synthesize(context.Background(), synthesisRequest(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution failed")
}

func TestSynthesize_NoArtifactFails(t *testing.T) {
	t.Parallel()

	binary := writeScript(t, "exit 0")
	synthesizer := createSynthesizer(t, binary)

	err := synthesizer.Synthesize(context.Background(), synthesisRequest(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, synth.ErrNoArtifact)
}

func TestSynthesize_EmptyArtifactFails(t *testing.T) {
	t.Parallel()

	binary := writeScript(t, `: > "$7"`)
	synthesizer := createSynthesizer(t, binary)

	err := synthesizer.Synthesize(context.Background(), synthesisRequest(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, synth.ErrNoArtifact)
}
