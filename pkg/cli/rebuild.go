package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/sortir-lab/sortir/pkg/cli/config"
	"github.com/sortir-lab/sortir/pkg/service/indexer"
	"github.com/sortir-lab/sortir/pkg/utils/logging"
)

func cmdRebuild() *cli.Command {
	var geminiCfg config.Gemini
	var indexCfg config.Index

	flags := []cli.Flag{}
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)

	return &cli.Command{
		Name:  "rebuild",
		Usage: "Rebuild the vector index from the document snapshot",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}

			progress := make(chan indexer.Progress, 16)
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				for p := range progress {
					logging.Default().Info(p.Message, "percent", fmt.Sprintf("%.0f%%", p.Percent*100))
				}
			}()

			builder, err := indexer.New(llmClient, indexCfg.Documents(), indexCfg.Dir(),
				indexer.WithBatchSize(indexCfg.BatchSize()),
				indexer.WithProgress(progress),
			)
			if err != nil {
				close(progress)
				wg.Wait()
				return goerr.Wrap(err, "failed to create index builder")
			}

			stats, err := builder.Rebuild(ctx)
			close(progress)
			wg.Wait()
			if err != nil {
				return goerr.Wrap(err, "index rebuild failed")
			}

			logging.Default().Info("index rebuild completed",
				"documents", stats.DocumentsProcessed,
				"vectors", stats.IndexVectors,
				"dimension", stats.EmbeddingDimension,
				"provider", stats.Provider,
				"model", stats.Model,
				"elapsed_seconds", stats.ElapsedSeconds,
			)
			return nil
		},
	}
}
