package usecase

import (
	"context"

	"github.com/sortir-lab/sortir/pkg/domain/model"
)

// IndexStats is read-only introspection of the loaded index generation
type IndexStats struct {
	NumDocuments int `json:"num_documents"`
	EmbeddingDim int `json:"embedding_dim"`
}

// Search runs a direct semantic search, bypassing classification
func (uc *UseCases) Search(ctx context.Context, query string, topK int) ([]*model.SearchResult, error) {
	engine, err := uc.handle.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Search(ctx, query, topK)
}

// Stats reports document count and embedding dimension of the currently
// loaded index generation, loading it if necessary.
func (uc *UseCases) Stats(ctx context.Context) (*IndexStats, error) {
	engine, err := uc.handle.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &IndexStats{
		NumDocuments: engine.NumDocuments(),
		EmbeddingDim: engine.EmbeddingDim(),
	}, nil
}
