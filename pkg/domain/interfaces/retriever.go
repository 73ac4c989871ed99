package interfaces

import (
	"context"

	"github.com/sortir-lab/sortir/pkg/domain/model"
)

// Retriever performs nearest-neighbor search over an immutable index
// generation. Results are ordered by ascending distance, at most k
// entries, fewer when the index holds fewer vectors.
type Retriever interface {
	Search(ctx context.Context, vec []float32, k int) ([]*model.SearchResult, error)
}

// IndexRebuilder runs the full end-to-end index build pipeline: load
// the documents snapshot, embed, construct, persist, swap.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) (*model.RebuildStats, error)
}
