package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/sortir-lab/sortir/pkg/cli/config"
	httpctrl "github.com/sortir-lab/sortir/pkg/controller/http"
	"github.com/sortir-lab/sortir/pkg/domain/interfaces"
	"github.com/sortir-lab/sortir/pkg/service/indexer"
	"github.com/sortir-lab/sortir/pkg/service/rag"
	"github.com/sortir-lab/sortir/pkg/service/vectorstore"
	"github.com/sortir-lab/sortir/pkg/usecase"
	"github.com/sortir-lab/sortir/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var rebuildAPIKey string
	var historyLimit int
	var geminiCfg config.Gemini
	var historyCfg config.History
	var indexCfg config.Index
	var profileCfg config.Profile

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("SORTIR_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "rebuild-api-key",
			Usage:       "API key required for index rebuild requests (rebuild endpoint is open when empty)",
			Sources:     cli.EnvVars("SORTIR_REBUILD_API_KEY"),
			Destination: &rebuildAPIKey,
		},
		&cli.IntFlag{
			Name:        "history-limit",
			Usage:       "Number of recent messages passed to the model per chat turn",
			Value:       rag.DefaultHistoryLimit,
			Sources:     cli.EnvVars("SORTIR_HISTORY_LIMIT"),
			Destination: &historyLimit,
		},
	}

	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, historyCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)
	flags = append(flags, profileCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := profileCfg.Load(); err != nil {
				return goerr.Wrap(err, "failed to load assistant profile")
			}

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}
			logging.Default().LogAttrs(ctx, slog.LevelInfo, "LLM client configured", geminiCfg.LogAttrs()...)

			history, err := historyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize history repository")
			}
			defer func() {
				if err := history.Close(); err != nil {
					logging.Default().Error("failed to close history repository", "error", err.Error())
				}
			}()

			// Engine construction reloads the index from disk, so the
			// handle can rebuild a fresh engine after an index swap.
			handle, err := rag.NewHandle(func(ctx context.Context) (*rag.Engine, error) {
				store, err := vectorstore.Load(ctx, indexCfg.Dir())
				if err != nil {
					return nil, err
				}
				return rag.New(store, llmClient, llmClient,
					rag.WithPersona(profileCfg.PersonaText()),
					rag.WithHistoryLimit(historyLimit),
				)
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create engine handle")
			}

			// Warm the engine. A missing index is not fatal here: the
			// API stays up and serves 503 until a rebuild completes.
			if _, err := handle.Acquire(ctx); err != nil {
				logging.Default().Warn("index not loaded at startup, retrieval disabled until rebuild",
					"dir", indexCfg.Dir(), "error", err.Error())
			} else {
				logging.Default().LogAttrs(ctx, slog.LevelInfo, "vector index loaded", indexCfg.LogAttrs()...)
			}

			rebuilder := func(progress chan<- indexer.Progress) (interfaces.IndexRebuilder, error) {
				return indexer.New(llmClient, indexCfg.Documents(), indexCfg.Dir(),
					indexer.WithBatchSize(indexCfg.BatchSize()),
					indexer.WithProgress(progress),
				)
			}

			uc := usecase.New(handle, history,
				usecase.WithRebuilder(rebuilder),
				usecase.WithHistoryLimit(historyLimit),
			)

			srv, err := httpctrl.New(uc, httpctrl.WithRebuildAPIKey(rebuildAPIKey))
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           srv,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
