package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/commander/core/execctx"
	"github.com/dmitrymomot/commander/core/logger"
)

// Recorder collects the audit children of one dispatch scope.
// The zero value is a disabled recorder.
type Recorder struct {
	enabled bool
	store   Store
	process string
	logger  *slog.Logger

	mu       sync.Mutex
	parent   *Document
	released bool
}

// Enabled reports whether the recorder keeps anything.
func (r *Recorder) Enabled() bool {
	return r != nil && r.enabled
}

// AddChild appends doc to the scope's parent document, creating the parent on
// first use. Consecutive SQL documents are merged into the first SQL child.
func (r *Recorder) AddChild(doc *Document, ec execctx.Context) {
	if !r.Enabled() || doc == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	if r.parent == nil {
		r.parent = newParent()
		r.parent.Process = r.process
	}

	snap := ec.Snapshot()
	doc.Context = &snap
	doc.Process = r.process

	if doc.DocumentType == TypeSQL {
		for _, child := range r.parent.Children {
			if child.DocumentType == TypeSQL {
				child.Body += doc.Body
				return
			}
		}
	}

	r.parent.Children = append(r.parent.Children, doc)
}

// Children returns a copy of the children recorded so far.
func (r *Recorder) Children() []*Document {
	if !r.Enabled() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.parent == nil {
		return nil
	}
	return r.parent.clone().Children
}

// Release persists the parent document if at least one child was recorded.
// Subsequent calls do nothing.
func (r *Recorder) Release(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}

	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return nil
	}
	r.released = true
	parent := r.parent
	r.mu.Unlock()

	if parent == nil || len(parent.Children) == 0 {
		return nil
	}

	if err := r.store.Persist(ctx, parent); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist audit document",
			logger.Component("audit"),
			logger.ID("audit_id", parent.ID),
			logger.Count("children", len(parent.Children)),
			logger.Error(err))
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	return nil
}
