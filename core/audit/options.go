package audit

import (
	"log/slog"
	"strings"
)

// Option configures an Auditor.
type Option func(*Auditor)

// WithDisabled turns auditing off entirely.
func WithDisabled(disabled bool) Option {
	return func(a *Auditor) {
		a.disabled = disabled
	}
}

// WithIncludedCommands restricts auditing to the named request types.
func WithIncludedCommands(names ...string) Option {
	return func(a *Auditor) {
		a.include = appendNames(a.include, names)
	}
}

// WithExcludedCommands removes the named request types from auditing.
func WithExcludedCommands(names ...string) Option {
	return func(a *Auditor) {
		a.exclude = appendNames(a.exclude, names)
	}
}

// WithProcess overrides the process name stamped on documents.
func WithProcess(name string) Option {
	return func(a *Auditor) {
		if name != "" {
			a.process = name
		}
	}
}

// WithLogger configures structured logging for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func appendNames(dst, names []string) []string {
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			dst = append(dst, n)
		}
	}
	return dst
}
