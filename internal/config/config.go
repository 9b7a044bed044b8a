// Package config provides the configuration structure for the TTS platform.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

const dirPermissions = 0o750

// BackendConfig selects the store/queue backing ("nats", "redis" or "memory").
type BackendConfig struct {
	Kind string `toml:"kind"`
}

// NATSConfig holds the configuration for the NATS backend.
type NATSConfig struct {
	URL             string `toml:"url"`
	JobStreamName   string `toml:"job_stream_name"`
	JobSubject      string `toml:"job_subject"`
	JobConsumerName string `toml:"job_consumer_name"`
	JobBucket       string `toml:"job_bucket"`
	StatsBucket     string `toml:"stats_bucket"`
}

// RedisConfig holds the configuration for the Redis backend.
type RedisConfig struct {
	Addr string `toml:"addr"`
}

// PathsConfig holds the directories the pipeline reads and writes.
type PathsConfig struct {
	UploadDir   string `toml:"upload_dir"`
	OutputDir   string `toml:"output_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// ServerConfig holds the ingress settings.
type ServerConfig struct {
	Port             int    `toml:"port"`
	PublicOutputBase string `toml:"public_output_base"`
}

// SynthesisConfig holds the settings of the external synthesis binary.
type SynthesisConfig struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ExtractionConfig holds the settings of the external document extractor.
type ExtractionConfig struct {
	Binary string `toml:"binary"`
}

// WorkerConfig holds the worker loop timings.
type WorkerConfig struct {
	PopWaitSeconds int `toml:"pop_wait_seconds"`
	BackoffSeconds int `toml:"backoff_seconds"`
	LeaseSeconds   int `toml:"lease_seconds"`
	SweepSeconds   int `toml:"sweep_seconds"`
}

// Config is the root configuration structure.
type Config struct {
	Backend    BackendConfig    `toml:"backend"`
	NATS       NATSConfig       `toml:"nats"`
	Redis      RedisConfig      `toml:"redis"`
	Paths      PathsConfig      `toml:"paths"`
	Server     ServerConfig     `toml:"server"`
	Synthesis  SynthesisConfig  `toml:"synthesis"`
	Extraction ExtractionConfig `toml:"extraction"`
	Worker     WorkerConfig     `toml:"worker"`
}

// Load loads the configuration via the central configurator.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}

// EnsureDirectories creates the upload, output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.UploadDir, c.Paths.OutputDir, c.Paths.BaseLogsDir} {
		if dir == "" {
			continue
		}

		err := os.MkdirAll(dir, dirPermissions)
		if err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// PopWait returns the bounded queue-pop wait, defaulting to five seconds.
func (c *Config) PopWait() time.Duration {
	return secondsOrDefault(c.Worker.PopWaitSeconds, 5*time.Second)
}

// Backoff returns the infrastructure-error retry delay, defaulting to five
// seconds.
func (c *Config) Backoff() time.Duration {
	return secondsOrDefault(c.Worker.BackoffSeconds, 5*time.Second)
}

// Lease returns the processing lease duration, defaulting to two minutes.
func (c *Config) Lease() time.Duration {
	return secondsOrDefault(c.Worker.LeaseSeconds, 2*time.Minute)
}

// SweepInterval returns the stale-lease sweep period, defaulting to thirty
// seconds.
func (c *Config) SweepInterval() time.Duration {
	return secondsOrDefault(c.Worker.SweepSeconds, 30*time.Second)
}

// SynthesisTimeout returns the bound on one synthesis invocation, defaulting
// to five minutes.
func (c *Config) SynthesisTimeout() time.Duration {
	return secondsOrDefault(c.Synthesis.TimeoutSeconds, 5*time.Minute)
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}

	return time.Duration(seconds) * time.Second
}
