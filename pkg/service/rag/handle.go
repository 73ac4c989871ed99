package rag

import (
	"context"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/singleflight"
)

// Handle is a versioned reference to the current engine. Readers take a
// snapshot at call start and use it for the whole call, so an in-flight
// chat is immune to a concurrent index swap. Construction after an
// invalidation is raced through singleflight: concurrent acquisitions
// share one load instead of each reading the index from disk.
type Handle struct {
	current   atomic.Pointer[Engine]
	group     singleflight.Group
	construct func(ctx context.Context) (*Engine, error)
}

// NewHandle creates a handle that builds engines with the given
// constructor. No engine is loaded until the first Acquire.
func NewHandle(construct func(ctx context.Context) (*Engine, error)) (*Handle, error) {
	if construct == nil {
		return nil, goerr.New("engine constructor is required")
	}
	return &Handle{construct: construct}, nil
}

// Acquire returns the current engine snapshot, loading it on first use
// or after an invalidation. A failed load leaves the handle empty; the
// next Acquire retries.
func (h *Handle) Acquire(ctx context.Context) (*Engine, error) {
	if engine := h.current.Load(); engine != nil {
		return engine, nil
	}

	v, err, _ := h.group.Do("engine", func() (any, error) {
		// Another caller may have finished the load while we queued
		if engine := h.current.Load(); engine != nil {
			return engine, nil
		}
		engine, err := h.construct(ctx)
		if err != nil {
			return nil, err
		}
		h.current.Store(engine)
		return engine, nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load engine")
	}
	return v.(*Engine), nil
}

// Invalidate drops the cached engine so the next Acquire reloads from
// disk. Call this only after a new index generation is confirmed
// persisted; snapshots already handed out stay fully usable.
func (h *Handle) Invalidate() {
	h.current.Store(nil)
}
