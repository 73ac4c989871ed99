package rag_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/sortir-lab/sortir/pkg/service/rag"
)

func newTestEngine(t *testing.T) *rag.Engine {
	t.Helper()
	engine, err := rag.New(eventStore(t), jazzEmbedder(), &fakeGenerator{})
	gt.NoError(t, err).Required()
	return engine
}

func TestHandleAcquire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var constructed atomic.Int32
	engine := newTestEngine(t)
	handle, err := rag.NewHandle(func(ctx context.Context) (*rag.Engine, error) {
		constructed.Add(1)
		return engine, nil
	})
	gt.NoError(t, err).Required()

	got, err := handle.Acquire(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(engine)

	// Second acquire serves the cached snapshot.
	_, err = handle.Acquire(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, constructed.Load()).Equal(int32(1))
}

func TestHandleConcurrentAcquire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var constructed atomic.Int32
	engine := newTestEngine(t)
	handle, err := rag.NewHandle(func(ctx context.Context) (*rag.Engine, error) {
		constructed.Add(1)
		return engine, nil
	})
	gt.NoError(t, err).Required()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := handle.Acquire(ctx)
			gt.NoError(t, err)
			gt.Value(t, got).Equal(engine)
		}()
	}
	wg.Wait()

	gt.Value(t, constructed.Load()).Equal(int32(1))
}

func TestHandleInvalidate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	first := newTestEngine(t)
	second := newTestEngine(t)
	engines := []*rag.Engine{first, second}

	var constructed atomic.Int32
	handle, err := rag.NewHandle(func(ctx context.Context) (*rag.Engine, error) {
		n := constructed.Add(1)
		return engines[n-1], nil
	})
	gt.NoError(t, err).Required()

	got, err := handle.Acquire(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(first)

	handle.Invalidate()

	got, err = handle.Acquire(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(second)
	gt.Value(t, constructed.Load()).Equal(int32(2))
}

func TestHandleFailedLoadRetries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	engine := newTestEngine(t)
	var calls atomic.Int32
	handle, err := rag.NewHandle(func(ctx context.Context) (*rag.Engine, error) {
		if calls.Add(1) == 1 {
			return nil, goerr.New("index not found")
		}
		return engine, nil
	})
	gt.NoError(t, err).Required()

	_, err = handle.Acquire(ctx)
	gt.Error(t, err)

	// A failed load leaves the handle empty; the next acquire retries.
	got, err := handle.Acquire(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, got).Equal(engine)
}
