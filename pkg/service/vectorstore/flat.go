package vectorstore

import (
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/types"
)

// FlatIndex is an exhaustive nearest-neighbor index over fixed-dimension
// vectors, stored row-major in a single slice. Distances are squared L2,
// matching the semantics of the persisted index format: for
// unit-normalized vectors squared L2 ranks identically to cosine
// similarity.
//
// The index is immutable once built; rebuilds construct a brand-new
// index. Search is safe for concurrent use as long as no Add runs
// concurrently.
type FlatIndex struct {
	dim     int
	vectors []float32
}

// Hit is one raw search result: the insertion position of the vector and
// its squared L2 distance to the query.
type Hit struct {
	Index    int
	Distance float64
}

// NewFlatIndex creates an empty index for vectors of the given dimension
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, goerr.New("embedding dimension must be positive",
			goerr.V("dim", dim), goerr.T(types.TagInvalidArgument))
	}
	return &FlatIndex{dim: dim}, nil
}

// Add appends a vector to the index. Insertion order is significant: it
// is the tie-break order for equal distances and the join key into the
// parallel document list.
func (x *FlatIndex) Add(vec []float32) error {
	if len(vec) != x.dim {
		return goerr.New("vector dimension mismatch",
			goerr.V("expected", x.dim), goerr.V("actual", len(vec)),
			goerr.T(types.TagInvalidArgument))
	}
	x.vectors = append(x.vectors, vec...)
	return nil
}

// Len returns the number of stored vectors
func (x *FlatIndex) Len() int {
	return len(x.vectors) / x.dim
}

// Dimension returns the vector dimension
func (x *FlatIndex) Dimension() int {
	return x.dim
}

// Search returns the k nearest vectors by ascending squared L2 distance.
// Ties are broken by insertion order. Searching an empty index returns
// an empty slice; k <= 0 is an input-contract violation.
func (x *FlatIndex) Search(vec []float32, k int) ([]Hit, error) {
	if k <= 0 {
		return nil, goerr.New("k must be positive",
			goerr.V("k", k), goerr.T(types.TagInvalidArgument))
	}
	if len(vec) != x.dim {
		return nil, goerr.New("query vector dimension mismatch",
			goerr.V("expected", x.dim), goerr.V("actual", len(vec)),
			goerr.T(types.TagInvalidArgument))
	}

	n := x.Len()
	if n == 0 {
		return []Hit{}, nil
	}

	hits := make([]Hit, n)
	for i := 0; i < n; i++ {
		row := x.vectors[i*x.dim : (i+1)*x.dim]
		var dist float64
		for j, v := range row {
			d := float64(v) - float64(vec[j])
			dist += d * d
		}
		hits[i] = Hit{Index: i, Distance: dist}
	}

	// Stable sort keeps insertion order for exactly equal distances
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})

	if k > n {
		k = n
	}
	return hits[:k], nil
}
