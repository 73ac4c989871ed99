package llm

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/sortir-lab/sortir/pkg/domain/types"
)

const (
	// DefaultDimension matches Gemini text-embedding models
	DefaultDimension = 768

	// DefaultTimeout bounds every provider call; a slow backend fails
	// visibly instead of hanging the caller.
	DefaultTimeout = 30 * time.Second
)

// Client adapts a gollem.LLMClient to the narrow embedding and
// generation contracts the engine consumes. It holds no mutable state
// and is safe for concurrent use.
type Client struct {
	llm       gollem.LLMClient
	provider  string
	model     string
	dimension int
	timeout   time.Duration
}

// Option is a functional option for client configuration
type Option func(*Client)

// WithDimension overrides the embedding dimension
func WithDimension(dim int) Option {
	return func(c *Client) {
		c.dimension = dim
	}
}

// WithTimeout overrides the per-call provider timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithIdentity sets the provider and model names recorded in index
// descriptors and rebuild stats
func WithIdentity(provider, model string) Option {
	return func(c *Client) {
		c.provider = provider
		c.model = model
	}
}

// New creates an adapter over the given LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (*Client, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &Client{
		llm:       llmClient,
		provider:  "gemini",
		model:     "gemini-embedding-001",
		dimension: DefaultDimension,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.dimension <= 0 {
		return nil, goerr.New("embedding dimension must be positive", goerr.V("dimension", c.dimension))
	}

	return c, nil
}

// Embed returns one vector per input text. Vectors are returned as
// produced by the provider, without normalization.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, goerr.New("texts are required", goerr.T(types.TagInvalidArgument))
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	embeddings, err := c.llm.GenerateEmbedding(ctx, c.dimension, texts)
	if err != nil {
		return nil, wrapProviderErr(err, "embedding generation failed",
			goerr.V("texts", len(texts)))
	}
	if len(embeddings) != len(texts) {
		return nil, goerr.New("provider returned wrong number of embeddings",
			goerr.V("expected", len(texts)), goerr.V("actual", len(embeddings)),
			goerr.T(types.TagProvider))
	}

	vectors := make([][]float32, len(embeddings))
	for i, emb := range embeddings {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Generate issues one completion call and returns the raw response text
func (c *Client) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var sessionOpts []gollem.SessionOption
	if systemPrompt != "" {
		sessionOpts = append(sessionOpts, gollem.WithSessionSystemPrompt(systemPrompt))
	}

	session, err := c.llm.NewSession(ctx, sessionOpts...)
	if err != nil {
		return "", wrapProviderErr(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", wrapProviderErr(err, "generation failed")
	}
	if resp == nil || len(resp.Texts) == 0 || resp.Texts[0] == "" {
		return "", goerr.New("provider returned empty response", goerr.T(types.TagProvider))
	}

	return resp.Texts[0], nil
}

// Dimension returns the fixed embedding dimension
func (c *Client) Dimension() int {
	return c.dimension
}

// Provider returns the configured provider name
func (c *Client) Provider() string {
	return c.provider
}

// Model returns the configured model name
func (c *Client) Model() string {
	return c.model
}

func wrapProviderErr(err error, msg string, values ...goerr.Option) error {
	opts := make([]goerr.Option, 0, len(values)+1)
	opts = append(opts, values...)
	if errors.Is(err, context.DeadlineExceeded) {
		opts = append(opts, goerr.T(types.TagProviderTimeout))
	} else {
		opts = append(opts, goerr.T(types.TagProvider))
	}
	return goerr.Wrap(err, msg, opts...)
}
