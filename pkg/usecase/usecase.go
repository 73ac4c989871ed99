package usecase

import (
	"sync"
	"sync/atomic"

	"github.com/sortir-lab/sortir/pkg/domain/interfaces"
	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/service/indexer"
	"github.com/sortir-lab/sortir/pkg/service/rag"
)

// RebuilderFactory creates a fresh single-use rebuilder wired to a
// progress channel. Each rebuild gets its own instance.
type RebuilderFactory func(progress chan<- indexer.Progress) (interfaces.IndexRebuilder, error)

// UseCases wires the engine handle, conversation history and rebuild
// pipeline together for the controllers.
type UseCases struct {
	handle       *rag.Handle
	history      interfaces.HistoryRepository
	newRebuilder RebuilderFactory
	historyLimit int

	tasksMu    sync.RWMutex
	tasks      map[model.TaskID]*model.RebuildTask
	rebuilding atomic.Bool
}

// Option is a functional option for UseCases configuration
type Option func(*UseCases)

// WithRebuilder enables the rebuild operation
func WithRebuilder(factory RebuilderFactory) Option {
	return func(uc *UseCases) {
		uc.newRebuilder = factory
	}
}

// WithHistoryLimit overrides the conversation window read per chat call
func WithHistoryLimit(n int) Option {
	return func(uc *UseCases) {
		if n > 0 {
			uc.historyLimit = n
		}
	}
}

// New creates the use case layer
func New(handle *rag.Handle, history interfaces.HistoryRepository, opts ...Option) *UseCases {
	uc := &UseCases{
		handle:       handle,
		history:      history,
		historyLimit: rag.DefaultHistoryLimit,
		tasks:        make(map[model.TaskID]*model.RebuildTask),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}
