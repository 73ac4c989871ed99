package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/urfave/cli/v3"

	"github.com/sortir-lab/sortir/pkg/service/llm"
)

// Gemini holds configuration for the Gemini LLM client
type Gemini struct {
	projectID string
	location  string
	model     string
	dimension int
	timeout   time.Duration
}

// Flags returns CLI flags for Gemini configuration
func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("SORTIR_GEMINI_PROJECT"),
			Destination: &g.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("SORTIR_GEMINI_LOCATION"),
			Destination: &g.location,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name recorded in the index descriptor",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("SORTIR_EMBEDDING_MODEL"),
			Destination: &g.model,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Dimension of embedding vectors",
			Value:       llm.DefaultDimension,
			Sources:     cli.EnvVars("SORTIR_EMBEDDING_DIMENSION"),
			Destination: &g.dimension,
		},
		&cli.DurationFlag{
			Name:        "llm-timeout",
			Usage:       "Timeout for a single LLM or embedding call",
			Value:       llm.DefaultTimeout,
			Sources:     cli.EnvVars("SORTIR_LLM_TIMEOUT"),
			Destination: &g.timeout,
		},
	}
}

// LogAttrs returns log attributes for the Gemini configuration
func (g *Gemini) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("project_id", g.projectID),
		slog.String("location", g.location),
		slog.String("model", g.model),
		slog.Int("dimension", g.dimension),
		slog.Duration("timeout", g.timeout),
	}
}

// Configure creates the LLM service client from the configured flags.
// Returns an error if projectID is not configured: sortir cannot embed
// or generate without a provider.
func (g *Gemini) Configure(ctx context.Context) (*llm.Client, error) {
	if g.projectID == "" {
		return nil, goerr.New("gemini-project is required")
	}

	client, err := gemini.New(ctx, g.projectID, g.location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}

	svc, err := llm.New(client,
		llm.WithDimension(g.dimension),
		llm.WithTimeout(g.timeout),
		llm.WithIdentity("gemini", g.model),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure LLM service")
	}

	return svc, nil
}
