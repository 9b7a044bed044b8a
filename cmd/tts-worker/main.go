// main package for the tts-worker
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"

	"github.com/enterprise-voice/tts-service/internal/backend"
	"github.com/enterprise-voice/tts-service/internal/config"
	"github.com/enterprise-voice/tts-service/internal/extract"
	"github.com/enterprise-voice/tts-service/internal/synth"
	"github.com/enterprise-voice/tts-service/internal/worker"
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir(), "tts-worker-bootstrap.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, "tts-worker.log")
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return err
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	err = cfg.EnsureDirectories()
	if err != nil {
		finalLog.Error("Failed to create directories: %v", err)

		return err
	}

	return runWorker(cfg, finalLog)
}

func runWorker(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backing, err := backend.Open(cfg, log)
	if err != nil {
		log.Error("Failed to open backend: %v", err)

		return err
	}
	defer backing.Close()

	synthesizer := synth.New(cfg.Synthesis.Binary, cfg.SynthesisTimeout(), log)
	extractor := extract.New(cfg.Extraction.Binary)

	loop := worker.New(backing.Store, backing.Queue, synthesizer, extractor, worker.Options{
		UploadDir: cfg.Paths.UploadDir,
		OutputDir: cfg.Paths.OutputDir,
		PopWait:   cfg.PopWait(),
		Backoff:   cfg.Backoff(),
		LeaseTTL:  cfg.Lease(),
	}, log)

	sweeper := worker.NewSweeper(backing.Store, cfg.SweepInterval(), log)

	go func() {
		sweepErr := sweeper.Run(ctx)
		if sweepErr != nil {
			log.Error("Sweeper stopped: %v", sweepErr)
		}
	}()

	log.System("Worker ready, waiting for jobs")

	err = loop.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker loop failed: %w", err)
	}

	log.System("Worker shut down")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Worker exited with error: %v\n", err)
		os.Exit(1)
	}
}
