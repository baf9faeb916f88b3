// Package config loads environment settings into tagged structs.
//
// Load parses a struct with caarlos0/env tags. The first call also reads a
// .env file from the working directory if one exists. Each struct type is
// parsed once and the result is cached, so packages can load the same type
// independently and see the same values:
//
//	var pgCfg pg.Config
//	if err := config.Load(&pgCfg); err != nil {
//		return err
//	}
//
// MustLoad panics instead of returning the error, for use at the top of main.
// Reset drops the cache; tests use it after changing the environment.
package config
