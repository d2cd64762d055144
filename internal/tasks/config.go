package tasks

import (
	"time"

	"github.com/mikestefanello/backlite"
)

// Config holds configuration for the task queue system.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 1, a single
	// consumer processes imports in FIFO order
	Workers int

	// MaxRetries is the attempt limit for blob cleanup. Import passes are never
	// retried by the queue. Default: 3
	MaxRetries int

	// RetryDelay is the backoff between blob cleanup attempts. Default: 1m
	RetryDelay time.Duration

	// TaskTimeout bounds one task execution. Default: 10m
	TaskTimeout time.Duration

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often to clean up completed tasks. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long finished tasks are kept. Default: 24h
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           1,
		MaxRetries:        3,
		RetryDelay:        1 * time.Minute,
		TaskTimeout:       10 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// importQueue is the queue configuration for import passes. The queue never
// retries on its own: a failed pass is recorded on the job and retried on request.
func (c Config) importQueue() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_book",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     c.TaskTimeout,
		Retention:   c.retention(),
	}
}

func (c Config) deleteBlobsQueue() backlite.QueueConfig {
	attempts := c.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	return backlite.QueueConfig{
		Name:        "delete_blobs",
		MaxAttempts: attempts,
		Backoff:     c.RetryDelay,
		Timeout:     c.TaskTimeout,
		Retention:   c.retention(),
	}
}

func (c Config) retention() *backlite.Retention {
	return &backlite.Retention{
		Duration:   c.RetentionDuration,
		OnlyFailed: false,
		Data:       &backlite.RetainData{OnlyFailed: true},
	}
}

// configuredQueue replaces a queue's static settings with the client's.
type configuredQueue struct {
	backlite.Queue
	config backlite.QueueConfig
}

func (q *configuredQueue) Config() *backlite.QueueConfig {
	return &q.config
}

func withConfig(queue backlite.Queue, config backlite.QueueConfig) backlite.Queue {
	return &configuredQueue{Queue: queue, config: config}
}
