package queue

import "time"

// Config holds the configuration for the enqueuer and the memory storage.
// Designed for environment-based configuration using popular env parsing libraries.
type Config struct {
	DefaultQueue      string        `env:"QUEUE_DEFAULT_QUEUE" envDefault:"default"`
	LockTimeout       time.Duration `env:"QUEUE_LOCK_TIMEOUT" envDefault:"5m"`
	LockCheckInterval time.Duration `env:"QUEUE_LOCK_CHECK_INTERVAL" envDefault:"1s"`
	ShutdownTimeout   time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		DefaultQueue:      DefaultQueueName,
		LockTimeout:       5 * time.Minute,
		LockCheckInterval: time.Second,
		ShutdownTimeout:   30 * time.Second,
	}
}
