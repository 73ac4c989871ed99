package rag_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
	"github.com/sortir-lab/sortir/pkg/service/rag"
	"github.com/sortir-lab/sortir/pkg/service/vectorstore"
)

type fakeEmbedder struct {
	dim      int
	provider string
	embed    func(ctx context.Context, input []string) ([][]float32, error)
}

func (f *fakeEmbedder) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return f.embed(ctx, input)
}

func (f *fakeEmbedder) Dimension() int {
	if f.dim == 0 {
		return 2
	}
	return f.dim
}

func (f *fakeEmbedder) Provider() string {
	if f.provider == "" {
		return "gemini"
	}
	return f.provider
}

func (f *fakeEmbedder) Model() string { return "test-embedding" }

// fakeGenerator answers the classifier call with classifyOut and records
// the prompts of the subsequent generation call.
type fakeGenerator struct {
	classifyOut  string
	answer       string
	calls        int
	systemPrompt string
	userPrompt   string
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	f.calls++
	if f.calls == 1 {
		return f.classifyOut, nil
	}
	f.systemPrompt = systemPrompt
	f.userPrompt = prompt
	return f.answer, nil
}

func eventStore(t *testing.T) *vectorstore.Store {
	t.Helper()

	// Unit vectors along fixed directions: doc 0 is the "jazz" axis.
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{-1, 0},
	}
	titles := []string{"Concert de jazz", "Atelier poterie", "Exposition photo"}

	idx, err := vectorstore.NewFlatIndex(2)
	gt.NoError(t, err).Required()
	docs := make([]*model.Document, 0, len(vectors))
	for i, v := range vectors {
		gt.NoError(t, idx.Add(v)).Required()
		docs = append(docs, &model.Document{
			ID:      fmt.Sprintf("evt-%d", i),
			Title:   titles[i],
			Content: titles[i] + " à Lyon samedi soir",
		})
	}

	store, err := vectorstore.NewStore(idx, docs, vectorstore.Descriptor{
		Provider: "gemini", ModelName: "test-embedding", Normalized: true,
	})
	gt.NoError(t, err).Required()
	return store
}

// jazzEmbedder maps any query onto the jazz axis
func jazzEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		embed: func(ctx context.Context, input []string) ([][]float32, error) {
			vecs := make([][]float32, len(input))
			for i := range input {
				vecs[i] = []float32{1, 0}
			}
			return vecs, nil
		},
	}
}

func TestNewRejectsIncompatibleIndex(t *testing.T) {
	t.Parallel()

	store := eventStore(t)

	t.Run("dimension mismatch", func(t *testing.T) {
		emb := jazzEmbedder()
		emb.dim = 768
		_, err := rag.New(store, emb, &fakeGenerator{})
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.TagIndexIncompatible)).True()
	})

	t.Run("provider mismatch", func(t *testing.T) {
		emb := jazzEmbedder()
		emb.provider = "openai"
		_, err := rag.New(store, emb, &fakeGenerator{})
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.TagIndexIncompatible)).True()
	})
}

func TestSearch(t *testing.T) {
	t.Parallel()

	engine, err := rag.New(eventStore(t), jazzEmbedder(), &fakeGenerator{})
	gt.NoError(t, err).Required()

	results, err := engine.Search(context.Background(), "concert de jazz", 2)
	gt.NoError(t, err).Required()
	gt.Array(t, results).Length(2)
	gt.Value(t, results[0].Document.Title).Equal("Concert de jazz")
	gt.Bool(t, results[0].Similarity > results[1].Similarity).True()
}

func TestSearchValidation(t *testing.T) {
	t.Parallel()

	engine, err := rag.New(eventStore(t), jazzEmbedder(), &fakeGenerator{})
	gt.NoError(t, err).Required()
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		topK  int
	}{
		{name: "empty query", query: "", topK: 5},
		{name: "top_k zero", query: "jazz", topK: 0},
		{name: "top_k negative", query: "jazz", topK: -1},
		{name: "top_k above max", query: "jazz", topK: 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Search(ctx, tt.query, tt.topK)
			gt.Error(t, err)
			gt.Bool(t, goerr.HasTag(err, types.TagInvalidArgument)).True()
		})
	}

	t.Run("boundary values accepted", func(t *testing.T) {
		_, err := engine.Search(ctx, "jazz", rag.MinTopK)
		gt.NoError(t, err)
		_, err = engine.Search(ctx, "jazz", rag.MaxTopK)
		gt.NoError(t, err)
	})
}

func TestChatRouting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name        string
		classifyOut string
		wantRAG     bool
	}{
		{name: "explicit search marker", classifyOut: "SEARCH", wantRAG: true},
		{name: "lowercase marker", classifyOut: "search", wantRAG: true},
		{name: "marker inside sentence", classifyOut: "Réponse: SEARCH.", wantRAG: true},
		{name: "chat marker", classifyOut: "CHAT", wantRAG: false},
		{name: "garbled output defaults to conversation", classifyOut: "je ne peux pas classifier", wantRAG: false},
		{name: "empty output defaults to conversation", classifyOut: " ", wantRAG: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{classifyOut: tt.classifyOut, answer: "Voici ma réponse"}
			engine, err := rag.New(eventStore(t), jazzEmbedder(), gen)
			gt.NoError(t, err).Required()

			result, err := engine.Chat(ctx, "trouve moi un concert", 3, nil)
			gt.NoError(t, err).Required()

			gt.Value(t, result.UsedRAG).Equal(tt.wantRAG)
			gt.Value(t, result.Response).Equal("Voici ma réponse")
			gt.Value(t, result.Query).Equal("trouve moi un concert")

			// Sources is always non-nil; populated only on the retrieval path.
			gt.Bool(t, result.Sources != nil).True()
			if tt.wantRAG {
				gt.Array(t, result.Sources).Length(3)
			} else {
				gt.Array(t, result.Sources).Length(0)
			}
		})
	}
}

func TestChatGroundedContext(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{classifyOut: "SEARCH", answer: "ok"}
	engine, err := rag.New(eventStore(t), jazzEmbedder(), gen)
	gt.NoError(t, err).Required()

	_, err = engine.Chat(context.Background(), "un concert ce weekend", 2, nil)
	gt.NoError(t, err).Required()

	// Retrieved events are injected into the system prompt under
	// numbered headers, nearest first.
	gt.String(t, gen.systemPrompt).Contains("Événement 1:")
	gt.String(t, gen.systemPrompt).Contains("Concert de jazz à Lyon samedi soir")
	gt.String(t, gen.systemPrompt).Contains("Événement 2:")
	gt.String(t, gen.userPrompt).Equal("un concert ce weekend")
}

func TestChatGroundedEmptyIndex(t *testing.T) {
	t.Parallel()

	idx, err := vectorstore.NewFlatIndex(2)
	gt.NoError(t, err).Required()
	store, err := vectorstore.NewStore(idx, nil, vectorstore.Descriptor{
		Provider: "gemini", ModelName: "test-embedding", Normalized: true,
	})
	gt.NoError(t, err).Required()

	gen := &fakeGenerator{classifyOut: "SEARCH", answer: "Désolé, rien ne correspond."}
	engine, err := rag.New(store, jazzEmbedder(), gen)
	gt.NoError(t, err).Required()

	result, err := engine.Chat(context.Background(), "un concert ce weekend", 3, nil)
	gt.NoError(t, err).Required()

	gt.Bool(t, result.UsedRAG).True()
	gt.Array(t, result.Sources).Length(0)

	// With nothing retrieved, the model is told so explicitly instead
	// of receiving an empty context block.
	gt.String(t, gen.systemPrompt).Contains("Aucun événement trouvé pour cette recherche.")
	gt.Bool(t, strings.Contains(gen.systemPrompt, "Événement 1:")).False()
}

func TestChatHistoryWindow(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{classifyOut: "CHAT", answer: "salut"}
	engine, err := rag.New(eventStore(t), jazzEmbedder(), gen, rag.WithHistoryLimit(2))
	gt.NoError(t, err).Required()

	history := []*model.Message{
		{Role: types.RoleUser, Content: "premier message"},
		{Role: types.RoleAssistant, Content: "première réponse"},
		{Role: types.RoleUser, Content: "deuxième message"},
		{Role: types.RoleAssistant, Content: "deuxième réponse"},
	}

	_, err = engine.Chat(context.Background(), "et maintenant ?", 5, history)
	gt.NoError(t, err).Required()

	// Only the 2 most recent messages survive the cap.
	gt.String(t, gen.userPrompt).Contains("Utilisateur: deuxième message")
	gt.String(t, gen.userPrompt).Contains("Assistant: deuxième réponse")
	gt.Bool(t, strings.Contains(gen.userPrompt, "premier message")).False()
	gt.String(t, gen.userPrompt).Contains("Utilisateur: et maintenant ?")
}

func TestChatPersona(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{classifyOut: "CHAT", answer: "coucou"}
	engine, err := rag.New(eventStore(t), jazzEmbedder(), gen,
		rag.WithPersona("Tu t'appelles Léa."))
	gt.NoError(t, err).Required()

	_, err = engine.Chat(context.Background(), "bonjour", 5, nil)
	gt.NoError(t, err).Required()
	gt.String(t, gen.systemPrompt).Contains("Tu t'appelles Léa.")
}
