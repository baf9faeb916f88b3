package audit

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

var (
	hostName = sync.OnceValue(func() string {
		h, err := os.Hostname()
		if err != nil {
			return "unknown"
		}
		return h
	})

	processName = sync.OnceValue(func() string {
		exe, err := os.Executable()
		if err != nil {
			return filepath.Base(os.Args[0])
		}
		return filepath.Base(exe)
	})
)

// Auditor holds the audit settings shared by all dispatch scopes.
// Safe for concurrent use; it never changes after construction.
type Auditor struct {
	store    Store
	disabled bool
	include  []string
	exclude  []string
	process  string
	logger   *slog.Logger
}

// New creates an Auditor persisting to store.
// A nil store disables auditing.
func New(store Store, opts ...Option) *Auditor {
	a := &Auditor{
		store:   store,
		process: processName(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		a.disabled = true
	}

	return a
}

// NewFromConfig creates an Auditor from configuration.
// Additional options override config values.
func NewFromConfig(cfg Config, store Store, opts ...Option) *Auditor {
	allOpts := append([]Option{
		WithDisabled(cfg.Disabled),
		WithIncludedCommands(cfg.IncludeCommands...),
		WithExcludedCommands(cfg.ExcludeCommands...),
		WithProcess(cfg.Process),
	}, opts...)

	return New(store, allOpts...)
}

// Disabled returns an Auditor that never records anything.
func Disabled() *Auditor {
	return New(nil)
}

// Enabled reports whether the auditor records anything at all.
func (a *Auditor) Enabled() bool {
	return a != nil && !a.disabled
}

// Includes reports whether requests with the given type name are audited.
// A non-empty inclusion list is a strict allow-list; the exclusion list is
// applied after it and always wins.
func (a *Auditor) Includes(name string) bool {
	if !a.Enabled() {
		return false
	}
	if len(a.include) > 0 && !slices.Contains(a.include, name) {
		return false
	}
	return !slices.Contains(a.exclude, name)
}

// NewRecorder creates the recorder for one dispatch scope.
func (a *Auditor) NewRecorder() *Recorder {
	if !a.Enabled() {
		return &Recorder{}
	}
	return &Recorder{
		enabled: true,
		store:   a.store,
		process: a.process,
		logger:  a.logger,
	}
}
