package runner

import "time"

// Config holds background runner settings loaded from the environment.
type Config struct {
	Disabled        bool          `env:"RUNNER_DISABLED" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"RUNNER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	SystemUser      string        `env:"RUNNER_SYSTEM_USER" envDefault:"Admin"`
	PingInterval    time.Duration `env:"RUNNER_PING_INTERVAL" envDefault:"5s"`
	ConsumerDelay   time.Duration `env:"RUNNER_CONSUMER_DELAY" envDefault:"5s"`
	RetryDelay      time.Duration `env:"RUNNER_QUEUE_RETRY_DELAY" envDefault:"1s"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		ShutdownTimeout: 30 * time.Second,
		SystemUser:      "Admin",
		PingInterval:    5 * time.Second,
		ConsumerDelay:   5 * time.Second,
		RetryDelay:      time.Second,
	}
}
