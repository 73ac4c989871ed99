package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/sortir-lab/sortir/pkg/cli/config"
	"github.com/sortir-lab/sortir/pkg/domain/types"
	"github.com/sortir-lab/sortir/pkg/service/rag"
	"github.com/sortir-lab/sortir/pkg/service/vectorstore"
)

func cmdSearch() *cli.Command {
	var topK int
	var geminiCfg config.Gemini
	var indexCfg config.Index

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "top-k",
			Aliases:     []string{"k"},
			Usage:       "Number of results to return",
			Value:       5,
			Sources:     cli.EnvVars("SORTIR_TOP_K"),
			Destination: &topK,
		},
	}
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Run a one-shot similarity search against the index",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return goerr.New("exactly one query argument is required", goerr.T(types.TagInvalidArgument))
			}
			query := c.Args().First()

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}

			store, err := vectorstore.Load(ctx, indexCfg.Dir())
			if err != nil {
				return goerr.Wrap(err, "failed to load vector index", goerr.V("dir", indexCfg.Dir()))
			}

			engine, err := rag.New(store, llmClient, llmClient)
			if err != nil {
				return goerr.Wrap(err, "failed to create engine")
			}

			results, err := engine.Search(ctx, query, topK)
			if err != nil {
				return goerr.Wrap(err, "search failed")
			}

			title := color.New(color.FgCyan, color.Bold)
			score := color.New(color.FgYellow)
			for i, r := range results {
				title.Printf("%d. %s\n", i+1, r.Document.Title)
				score.Printf("   similarity: %.4f\n", r.Similarity)
				fmt.Printf("   %s\n\n", r.Document.Content)
			}
			if len(results) == 0 {
				fmt.Println("no results")
			}
			return nil
		},
	}
}
