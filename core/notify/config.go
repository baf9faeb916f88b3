package notify

import "time"

// Config holds notification hub settings loaded from the environment.
type Config struct {
	BufferSize     int           `env:"NOTIFY_BUFFER_SIZE" envDefault:"64"`
	WriteTimeout   time.Duration `env:"NOTIFY_WRITE_TIMEOUT" envDefault:"10s"`
	PingInterval   time.Duration `env:"NOTIFY_PING_INTERVAL" envDefault:"30s"`
	AllowAnyOrigin bool          `env:"NOTIFY_ALLOW_ANY_ORIGIN" envDefault:"false"`
}
