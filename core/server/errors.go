package server

import "errors"

var (
	// ErrServerAlreadyRunning is returned when starting a running server.
	ErrServerAlreadyRunning = errors.New("server is already running")

	// ErrMissingAddress is returned when server address is not provided.
	ErrMissingAddress = errors.New("server address is required")

	// ErrFailedLoadCert is returned when the configured certificate cannot be loaded.
	ErrFailedLoadCert = errors.New("failed to load certificate")
)
