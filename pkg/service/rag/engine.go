package rag

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/interfaces"
	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
	"github.com/sortir-lab/sortir/pkg/service/vectorstore"
	"github.com/sortir-lab/sortir/pkg/utils/logging"
)

const (
	// MinTopK and MaxTopK bound the caller-supplied result count
	MinTopK = 1
	MaxTopK = 20

	// DefaultHistoryLimit caps the conversation window fed to the
	// generator: 5 exchanges = 10 messages
	DefaultHistoryLimit = 10
)

// Engine composes classifier, retriever and generator into the chat
// pipeline. It is immutable after construction: one engine serves one
// index generation, and a rebuild produces a new engine rather than
// mutating this one. All methods are safe for concurrent use.
type Engine struct {
	store        *vectorstore.Store
	embedder     interfaces.EmbeddingClient
	generator    interfaces.TextGenerator
	persona      string
	historyLimit int
}

// Option is a functional option for engine configuration
type Option func(*Engine)

// WithPersona appends extra persona instructions to both system prompts
func WithPersona(persona string) Option {
	return func(e *Engine) {
		e.persona = persona
	}
}

// WithHistoryLimit overrides the conversation window size in messages
func WithHistoryLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.historyLimit = n
		}
	}
}

// New creates an engine over a loaded index generation. The index is
// rejected before any query is served if its embedding dimension or
// provider identity disagrees with the configured embedding client.
func New(store *vectorstore.Store, embedder interfaces.EmbeddingClient, generator interfaces.TextGenerator, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, goerr.New("vector store is required")
	}
	if embedder == nil {
		return nil, goerr.New("embedding client is required")
	}
	if generator == nil {
		return nil, goerr.New("text generator is required")
	}

	if store.EmbeddingDim() != embedder.Dimension() {
		return nil, goerr.New("index embedding dimension does not match embedding client",
			goerr.V("index", store.EmbeddingDim()),
			goerr.V("client", embedder.Dimension()),
			goerr.T(types.TagIndexIncompatible))
	}
	if desc := store.Descriptor(); desc.Provider != "" && desc.Provider != embedder.Provider() {
		return nil, goerr.New("index embedding provider does not match embedding client",
			goerr.V("index", desc.Provider),
			goerr.V("client", embedder.Provider()),
			goerr.T(types.TagIndexIncompatible))
	}

	e := &Engine{
		store:        store,
		embedder:     embedder,
		generator:    generator,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Search embeds the query and returns the k nearest documents, nearest
// first. It bypasses classification entirely.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]*model.SearchResult, error) {
	if err := validateQuery(query, topK); err != nil {
		return nil, err
	}

	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	vec := vectors[0]
	vectorstore.Normalize(vec)

	return e.store.Search(ctx, vec, topK)
}

// Chat runs the full pipeline: classify the query, retrieve and generate
// a grounded answer when it needs events, answer conversationally
// otherwise. The history slice is the caller's bounded, ordered window;
// the engine caps it further to its own limit.
func (e *Engine) Chat(ctx context.Context, query string, topK int, history []*model.Message) (*model.ChatResult, error) {
	if err := validateQuery(query, topK); err != nil {
		return nil, err
	}

	route, err := e.classify(ctx, query)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Debug("query classified", "query", query, "route", route)

	if !route.NeedsRetrieval() {
		response, err := e.generateConversational(ctx, query, history)
		if err != nil {
			return nil, err
		}
		return &model.ChatResult{
			Response: response,
			Sources:  []*model.SearchResult{},
			Query:    query,
			UsedRAG:  false,
		}, nil
	}

	results, err := e.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	response, err := e.generateGrounded(ctx, query, results, history)
	if err != nil {
		return nil, err
	}

	return &model.ChatResult{
		Response: response,
		Sources:  results,
		Query:    query,
		UsedRAG:  true,
	}, nil
}

// NumDocuments returns the number of documents in the loaded generation
func (e *Engine) NumDocuments() int {
	return e.store.NumDocuments()
}

// EmbeddingDim returns the embedding dimension of the loaded generation
func (e *Engine) EmbeddingDim() int {
	return e.store.EmbeddingDim()
}

func validateQuery(query string, topK int) error {
	if query == "" {
		return goerr.New("query must not be empty", goerr.T(types.TagInvalidArgument))
	}
	if topK < MinTopK || topK > MaxTopK {
		return goerr.New("top_k out of range",
			goerr.V("top_k", topK), goerr.V("min", MinTopK), goerr.V("max", MaxTopK),
			goerr.T(types.TagInvalidArgument))
	}
	return nil
}
