package worker

import (
	"fmt"
	"time"
)

// Config holds the worker pool configuration.
type Config struct {
	// Concurrency is the number of goroutines polling for jobs.
	Concurrency int

	// PollInterval is how often an idle worker checks for new jobs.
	PollInterval time.Duration

	// JobTimeout bounds a single job execution.
	JobTimeout time.Duration

	// StaleJobThreshold is how long a job may sit in running state before a
	// restarted worker reclaims it.
	StaleJobThreshold time.Duration

	// ShutdownTimeout bounds how long Stop waits for in-flight jobs.
	ShutdownTimeout time.Duration

	// RetryDelay is the base delay before a failed job is retried.
	RetryDelay time.Duration
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("job timeout must be positive, got %v", c.JobTimeout)
	}
	return nil
}

// DefaultConfig returns a configuration suitable for a single-instance
// deployment.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        2 * time.Minute,
		StaleJobThreshold: 10 * time.Minute,
		ShutdownTimeout:   30 * time.Second,
		RetryDelay:        30 * time.Second,
	}
}
