package redis

import "time"

// Config holds Redis connection and queue settings loaded from the environment.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"commander"`
	QueueName      string        `env:"REDIS_QUEUE_NAME" envDefault:"default"`
	PollTimeout    time.Duration `env:"REDIS_QUEUE_POLL_TIMEOUT" envDefault:"1s"`
	Retention      time.Duration `env:"REDIS_QUEUE_RETENTION" envDefault:"24h"`
}
