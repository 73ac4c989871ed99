package vectorstore_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
	"github.com/sortir-lab/sortir/pkg/service/vectorstore"
)

func buildStore(t *testing.T, vectors [][]float32) *vectorstore.Store {
	t.Helper()

	idx, err := vectorstore.NewFlatIndex(len(vectors[0]))
	gt.NoError(t, err).Required()
	docs := make([]*model.Document, 0, len(vectors))
	for i, v := range vectors {
		gt.NoError(t, idx.Add(v)).Required()
		docs = append(docs, &model.Document{
			ID:      fmt.Sprintf("doc-%d", i),
			Title:   fmt.Sprintf("Event %d", i),
			Content: fmt.Sprintf("Description of event %d", i),
		})
	}

	store, err := vectorstore.NewStore(idx, docs, vectorstore.Descriptor{
		Provider:   "gemini",
		ModelName:  "gemini-embedding-001",
		Normalized: true,
	})
	gt.NoError(t, err).Required()
	return store
}

func TestStoreSearch(t *testing.T) {
	t.Parallel()

	store := buildStore(t, [][]float32{
		{1, 0},
		{0, 1},
	})

	results, err := store.Search(context.Background(), []float32{1, 0}, 2)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(2)

	// Exact match: distance 0, similarity 1.
	gt.Value(t, results[0].Document.ID).Equal("doc-0")
	gt.Value(t, results[0].Distance).Equal(float64(0))
	gt.Value(t, results[0].Similarity).Equal(float64(1))

	gt.Value(t, results[1].Document.ID).Equal("doc-1")
	gt.Value(t, results[1].Similarity).Equal(1 - results[1].Distance)
}

func TestNewStoreCountMismatch(t *testing.T) {
	t.Parallel()

	idx, err := vectorstore.NewFlatIndex(2)
	gt.NoError(t, err).Required()
	gt.NoError(t, idx.Add([]float32{1, 0}))

	_, err = vectorstore.NewStore(idx, nil, vectorstore.Descriptor{})
	gt.Error(t, err)
	gt.Bool(t, goerr.HasTag(err, types.TagIndexIncompatible)).True()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := buildStore(t, [][]float32{
		{0.6, 0.8},
		{0.8, 0.6},
		{-1, 0},
	})

	dir := filepath.Join(t.TempDir(), "events")
	gt.NoError(t, vectorstore.Save(ctx, store, dir)).Required()

	loaded, err := vectorstore.Load(ctx, dir)
	gt.NoError(t, err).Required()

	gt.Value(t, loaded.NumDocuments()).Equal(3)
	gt.Value(t, loaded.EmbeddingDim()).Equal(2)

	desc := loaded.Descriptor()
	gt.Value(t, desc.Provider).Equal("gemini")
	gt.Value(t, desc.ModelName).Equal("gemini-embedding-001")
	gt.Value(t, desc.IndexType).Equal("FlatL2")
	gt.Value(t, desc.NumVectors).Equal(3)
	gt.Bool(t, desc.Normalized).True()

	results, err := loaded.Search(ctx, []float32{0.6, 0.8}, 1)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(1)
	gt.Value(t, results[0].Document.ID).Equal("doc-0")
	gt.Value(t, results[0].Document.Title).Equal("Event 0")
}

func TestLoadMissingIndex(t *testing.T) {
	t.Parallel()

	_, err := vectorstore.Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	gt.Error(t, err)
	gt.Bool(t, goerr.HasTag(err, types.TagSourceNotFound)).True()
}

func TestLoadLegacyLayout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// Produce a bundled index, then rewrite it into the legacy layout:
	// documents live outside the index directory, referenced from the
	// descriptor.
	store := buildStore(t, [][]float32{{1, 0}, {0, 1}})
	base := t.TempDir()
	dir := filepath.Join(base, "events")
	gt.NoError(t, vectorstore.Save(ctx, store, dir)).Required()

	docsPath := filepath.Join(base, "rag_documents.json")
	gt.NoError(t, os.Rename(filepath.Join(dir, "documents.json"), docsPath)).Required()

	desc := store.Descriptor()
	desc.DocumentsPath = docsPath
	data, err := json.Marshal(desc)
	gt.NoError(t, err).Required()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)).Required()

	loaded, err := vectorstore.Load(ctx, dir)
	gt.NoError(t, err).Required()
	gt.Value(t, loaded.NumDocuments()).Equal(2)
	gt.Value(t, loaded.Descriptor().DocumentsPath).Equal(docsPath)
}

func TestLoadLegacyMissingDocuments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := buildStore(t, [][]float32{{1, 0}})
	dir := filepath.Join(t.TempDir(), "events")
	gt.NoError(t, vectorstore.Save(ctx, store, dir)).Required()
	gt.NoError(t, os.Remove(filepath.Join(dir, "documents.json"))).Required()

	// Descriptor carries no documents_path: the snapshot is unrecoverable.
	_, err := vectorstore.Load(ctx, dir)
	gt.Error(t, err)
	gt.Bool(t, goerr.HasTag(err, types.TagSourceNotFound)).True()
}

func TestLoadWithoutDescriptor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := buildStore(t, [][]float32{{1, 0}})
	dir := filepath.Join(t.TempDir(), "events")
	gt.NoError(t, vectorstore.Save(ctx, store, dir)).Required()
	gt.NoError(t, os.Remove(filepath.Join(dir, "config.json"))).Required()

	loaded, err := vectorstore.Load(ctx, dir)
	gt.NoError(t, err).Required()
	gt.Value(t, loaded.Descriptor().Provider).Equal("")
	gt.Value(t, loaded.Descriptor().IndexType).Equal("FlatL2")
	gt.Value(t, loaded.EmbeddingDim()).Equal(2)
}
