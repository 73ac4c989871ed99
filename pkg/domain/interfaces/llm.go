package interfaces

import "context"

// EmbeddingClient turns text into fixed-dimension dense vectors. Output
// vectors are deterministic for a fixed model version and are NOT
// normalized; the caller normalizes before indexing or search.
// Implementations must be safe for concurrent use.
type EmbeddingClient interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the fixed output vector length.
	Dimension() int

	// Provider and Model identify the backing service; both are
	// recorded in the index descriptor and validated at load time.
	Provider() string
	Model() string
}

// TextGenerator produces a completion for a prompt under an optional
// system prompt. Implementations must be safe for concurrent use.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)
}
