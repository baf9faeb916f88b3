package identity

import "time"

// Config holds token settings loaded from the environment.
type Config struct {
	SigningKey string        `env:"TOKEN_SIGNING_KEY,required"`
	TTL        time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	Issuer     string        `env:"TOKEN_ISSUER" envDefault:"commander"`
}
