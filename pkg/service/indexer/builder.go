package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/interfaces"
	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
	"github.com/sortir-lab/sortir/pkg/service/vectorstore"
	"github.com/sortir-lab/sortir/pkg/utils/logging"
	"github.com/sortir-lab/sortir/pkg/utils/safe"
)

// DefaultBatchSize bounds memory per embedding call and makes progress
// observable. It is a performance knob only: any batch size yields the
// same index for the same inputs and model version.
const DefaultBatchSize = 32

// Builder runs the offline index pipeline: load the documents snapshot,
// embed in batches, normalize, construct a flat index, persist a fresh
// generation and swap it in. It never mutates a currently-served index;
// any mid-build failure leaves the previous generation untouched.
//
// A Builder is single-use per Rebuild call and must not run concurrently
// with another Builder against the same index directory.
type Builder struct {
	embedder      interfaces.EmbeddingClient
	documentsPath string
	indexDir      string
	batchSize     int
	progress      chan<- Progress
}

// Option is a functional option for builder configuration
type Option func(*Builder)

// WithBatchSize overrides the embedding batch size
func WithBatchSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithProgress attaches a progress event channel. Events are dropped
// rather than blocking the build when the consumer lags.
func WithProgress(ch chan<- Progress) Option {
	return func(b *Builder) {
		b.progress = ch
	}
}

// New creates a builder for the given documents snapshot and target
// index directory
func New(embedder interfaces.EmbeddingClient, documentsPath, indexDir string, opts ...Option) (*Builder, error) {
	if embedder == nil {
		return nil, goerr.New("embedding client is required")
	}
	if documentsPath == "" {
		return nil, goerr.New("documents path is required")
	}
	if indexDir == "" {
		return nil, goerr.New("index directory is required")
	}

	b := &Builder{
		embedder:      embedder,
		documentsPath: documentsPath,
		indexDir:      indexDir,
		batchSize:     DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// LoadDocuments reads the documents snapshot. A missing snapshot is
// fatal: the builder does not invent an empty index.
func (b *Builder) LoadDocuments() ([]*model.Document, error) {
	data, err := os.ReadFile(b.documentsPath)
	if err != nil {
		return nil, goerr.Wrap(err, "documents snapshot not found",
			goerr.V("path", b.documentsPath), goerr.T(types.TagSourceNotFound))
	}

	var documents []*model.Document
	if err := json.Unmarshal(data, &documents); err != nil {
		return nil, goerr.Wrap(err, "invalid documents snapshot", goerr.V("path", b.documentsPath))
	}
	return documents, nil
}

// EmbedDocuments generates embeddings for all document contents in
// batches, reporting progress from 5% to 65%.
func (b *Builder) EmbedDocuments(ctx context.Context, documents []*model.Document) ([][]float32, error) {
	b.report("Initialisation du modèle d'embeddings", 0.05)

	total := len(documents)
	vectors := make([][]float32, 0, total)

	for i := 0; i < total; i += b.batchSize {
		end := i + b.batchSize
		if end > total {
			end = total
		}
		batch := make([]string, 0, end-i)
		for _, doc := range documents[i:end] {
			batch = append(batch, doc.Content)
		}

		batchVecs, err := b.embedder.Embed(ctx, batch)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to embed document batch",
				goerr.V("offset", i), goerr.V("size", len(batch)))
		}
		vectors = append(vectors, batchVecs...)

		progress := 0.05 + float64(end)/float64(total)*0.6
		b.report(fmt.Sprintf("Génération embeddings: %d/%d", end, total), progress)
	}

	return vectors, nil
}

// BuildStore normalizes the vectors and assembles an immutable store
// over them, reporting the construction milestones.
func (b *Builder) BuildStore(documents []*model.Document, vectors [][]float32) (*vectorstore.Store, error) {
	b.report("Construction de l'index", 0.70)

	if len(vectors) == 0 {
		return nil, goerr.New("no vectors to index", goerr.T(types.TagRebuild))
	}

	index, err := vectorstore.NewFlatIndex(len(vectors[0]))
	if err != nil {
		return nil, err
	}

	vectorstore.NormalizeAll(vectors)
	for i, vec := range vectors {
		if err := index.Add(vec); err != nil {
			return nil, goerr.Wrap(err, "failed to add vector", goerr.V("position", i))
		}
	}

	store, err := vectorstore.NewStore(index, documents, vectorstore.Descriptor{
		Provider:   b.embedder.Provider(),
		ModelName:  b.embedder.Model(),
		Normalized: true,
	})
	if err != nil {
		return nil, err
	}

	b.report("Index construit", 0.80)
	return store, nil
}

// Rebuild executes the full pipeline and swaps the new generation in.
// The previous index directory stays current and queryable until the new
// one is fully and durably on disk.
func (b *Builder) Rebuild(ctx context.Context) (*model.RebuildStats, error) {
	start := time.Now()
	b.report("Démarrage de la reconstruction", 0.0)

	b.report("Chargement des documents", 0.02)
	documents, err := b.LoadDocuments()
	if err != nil {
		return nil, err
	}

	vectors, err := b.EmbedDocuments(ctx, documents)
	if err != nil {
		return nil, err
	}

	store, err := b.BuildStore(documents, vectors)
	if err != nil {
		return nil, err
	}

	b.report("Sauvegarde de l'index", 0.85)
	if err := b.persist(ctx, store); err != nil {
		return nil, err
	}
	b.report("Index sauvegardé", 0.95)

	b.report("Reconstruction terminée", 1.0)

	return &model.RebuildStats{
		DocumentsProcessed: len(documents),
		EmbeddingDimension: store.EmbeddingDim(),
		IndexVectors:       store.NumDocuments(),
		ElapsedSeconds:     time.Since(start).Seconds(),
		Provider:           b.embedder.Provider(),
		Model:              b.embedder.Model(),
	}, nil
}

// persist writes the new generation next to the current one and swaps
// directories. Readers that loaded the old generation keep serving from
// memory; the swap only changes what the next load observes.
func (b *Builder) persist(ctx context.Context, store *vectorstore.Store) error {
	parent := filepath.Dir(b.indexDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create index parent directory", goerr.V("dir", parent))
	}

	gen := uuid.New().String()[:8]
	nextDir := filepath.Join(parent, fmt.Sprintf(".%s.next-%s", filepath.Base(b.indexDir), gen))
	if err := vectorstore.Save(ctx, store, nextDir); err != nil {
		safe.Remove(ctx, nextDir)
		return goerr.Wrap(err, "failed to persist new index generation", goerr.V("dir", nextDir))
	}

	oldDir := ""
	if _, err := os.Stat(b.indexDir); err == nil {
		oldDir = filepath.Join(parent, fmt.Sprintf(".%s.old-%s", filepath.Base(b.indexDir), gen))
		if err := os.Rename(b.indexDir, oldDir); err != nil {
			safe.Remove(ctx, nextDir)
			return goerr.Wrap(err, "failed to retire current index generation",
				goerr.V("dir", b.indexDir))
		}
	}

	if err := os.Rename(nextDir, b.indexDir); err != nil {
		// Put the previous generation back so the service keeps serving
		if oldDir != "" {
			if rerr := os.Rename(oldDir, b.indexDir); rerr != nil {
				logging.From(ctx).Error("failed to restore previous index generation",
					"dir", oldDir, "error", rerr.Error())
			}
		}
		safe.Remove(ctx, nextDir)
		return goerr.Wrap(err, "failed to publish new index generation",
			goerr.V("dir", b.indexDir))
	}

	if oldDir != "" {
		safe.Remove(ctx, oldDir)
	}
	return nil
}
