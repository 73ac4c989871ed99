package vectorstore

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
)

// Descriptor records the identity and shape of a persisted index. A
// loader must refuse an index whose provider or dimension disagrees with
// the configured embedding client.
type Descriptor struct {
	Provider      string `json:"provider"`
	ModelName     string `json:"model_name"`
	IndexType     string `json:"index_type"`
	EmbeddingDim  int    `json:"embedding_dim"`
	NumVectors    int    `json:"num_vectors"`
	Normalized    bool   `json:"normalized"`
	DocumentsPath string `json:"documents_path,omitempty"`
}

// Store pairs an immutable vector index with its same-generation
// document snapshot. The i-th vector corresponds to the i-th document.
type Store struct {
	index      *FlatIndex
	documents  []*model.Document
	descriptor Descriptor
}

// NewStore assembles a store, enforcing that vector count and document
// count match (the build-time invariant of a valid generation).
func NewStore(index *FlatIndex, documents []*model.Document, desc Descriptor) (*Store, error) {
	if index == nil {
		return nil, goerr.New("index is required")
	}
	if index.Len() != len(documents) {
		return nil, goerr.New("vector count does not match document count",
			goerr.V("vectors", index.Len()), goerr.V("documents", len(documents)),
			goerr.T(types.TagIndexIncompatible))
	}
	desc.IndexType = indexTypeFlatL2
	desc.EmbeddingDim = index.Dimension()
	desc.NumVectors = index.Len()
	return &Store{
		index:      index,
		documents:  documents,
		descriptor: desc,
	}, nil
}

// Search returns the k nearest documents for a unit-normalized query
// vector, nearest first. Similarity is reported as 1 - distance.
func (s *Store) Search(ctx context.Context, vec []float32, k int) ([]*model.SearchResult, error) {
	hits, err := s.index.Search(vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]*model.SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, &model.SearchResult{
			Document:   s.documents[hit.Index],
			Similarity: 1 - hit.Distance,
			Distance:   hit.Distance,
		})
	}
	return results, nil
}

// NumDocuments returns the number of indexed documents
func (s *Store) NumDocuments() int {
	return len(s.documents)
}

// EmbeddingDim returns the vector dimension of the index
func (s *Store) EmbeddingDim() int {
	return s.index.Dimension()
}

// Descriptor returns the index descriptor
func (s *Store) Descriptor() Descriptor {
	return s.descriptor
}
