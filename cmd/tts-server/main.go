// main package for the tts-server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"

	"github.com/enterprise-voice/tts-service/internal/api"
	"github.com/enterprise-voice/tts-service/internal/backend"
	"github.com/enterprise-voice/tts-service/internal/config"
	"github.com/enterprise-voice/tts-service/internal/status"
	"github.com/enterprise-voice/tts-service/internal/submit"
)

const (
	defaultPort      = 5000
	shutdownTimeout  = 10 * time.Second
	readHeaderLimit  = 5 * time.Second
	defaultPublicURL = "/output"
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir(), "tts-server-bootstrap.log")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, "tts-server.log")
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

	return runServer(cfg, finalLog)
}

func runServer(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backing, err := backend.Open(cfg, log)
	if err != nil {
		log.Error("Failed to open backend: %v", err)

		return err
	}
	defer backing.Close()

	publicBase := cfg.Server.PublicOutputBase
	if publicBase == "" {
		publicBase = defaultPublicURL
	}

	submitService := submit.NewService(backing.Store, backing.Queue, log)
	statusService := status.NewService(backing.Store, publicBase)
	server := api.NewServer(submitService, statusService, backing.Store, log)

	port := cfg.Server.Port
	if port <= 0 {
		port = defaultPort
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           server.Router(cfg.Paths.OutputDir),
		ReadHeaderTimeout: readHeaderLimit,
	}

	errChan := make(chan error, 1)

	go func() {
		errChan <- httpServer.ListenAndServe()
	}()

	log.System("TTS API server listening on port %d", port)

	select {
	case err = <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.System("Server shut down")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server exited with error: %v\n", err)
		os.Exit(1)
	}
}
