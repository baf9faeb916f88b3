package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/commander/core/config"
)

type runnerSettings struct {
	Disabled     bool          `env:"CONFIG_TEST_RUNNER_DISABLED" envDefault:"false"`
	PingInterval time.Duration `env:"CONFIG_TEST_PING_INTERVAL" envDefault:"5s"`
	SystemUser   string        `env:"CONFIG_TEST_SYSTEM_USER" envDefault:"Admin"`
}

type tokenSettings struct {
	SigningKey string `env:"CONFIG_TEST_SIGNING_KEY,required"`
}

type auditSettings struct {
	Exclude []string `env:"CONFIG_TEST_AUDIT_EXCLUDE" envSeparator:","`
}

// Tests in this file mutate the environment and the package cache, so they
// do not run in parallel.

func TestLoad(t *testing.T) {
	t.Run("defaults and overrides", func(t *testing.T) {
		config.Reset()
		t.Setenv("CONFIG_TEST_PING_INTERVAL", "250ms")

		var cfg runnerSettings
		require.NoError(t, config.Load(&cfg))
		assert.False(t, cfg.Disabled)
		assert.Equal(t, 250*time.Millisecond, cfg.PingInterval)
		assert.Equal(t, "Admin", cfg.SystemUser)
	})

	t.Run("cached per type", func(t *testing.T) {
		config.Reset()
		t.Setenv("CONFIG_TEST_SYSTEM_USER", "root")

		var first runnerSettings
		require.NoError(t, config.Load(&first))

		t.Setenv("CONFIG_TEST_SYSTEM_USER", "someone-else")
		var second runnerSettings
		require.NoError(t, config.Load(&second))
		assert.Equal(t, "root", second.SystemUser)

		config.Reset()
		var third runnerSettings
		require.NoError(t, config.Load(&third))
		assert.Equal(t, "someone-else", third.SystemUser)
	})

	t.Run("slices", func(t *testing.T) {
		config.Reset()
		t.Setenv("CONFIG_TEST_AUDIT_EXCLUDE", "Ping,AsyncPing")

		var cfg auditSettings
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, []string{"Ping", "AsyncPing"}, cfg.Exclude)
	})

	t.Run("required missing", func(t *testing.T) {
		config.Reset()

		var cfg tokenSettings
		err := config.Load(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CONFIG_TEST_SIGNING_KEY")
		assert.Panics(t, func() { config.MustLoad(&cfg) })
	})

	t.Run("nil target", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[runnerSettings](nil), config.ErrNilTarget)
	})
}
