package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/sortir-lab/sortir/pkg/domain/interfaces"
	"github.com/sortir-lab/sortir/pkg/repository/memory"
	"github.com/sortir-lab/sortir/pkg/repository/sqlite"
	"github.com/sortir-lab/sortir/pkg/utils/logging"
)

// History holds CLI flags for conversation history backend configuration
type History struct {
	backend string
	dbPath  string
}

// Flags returns CLI flags for history configuration
func (h *History) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "history-backend",
			Usage:       "History backend type (memory or sqlite)",
			Value:       "memory",
			Sources:     cli.EnvVars("SORTIR_HISTORY_BACKEND"),
			Destination: &h.backend,
		},
		&cli.StringFlag{
			Name:        "history-db",
			Usage:       "SQLite database path (required when using sqlite backend)",
			Value:       "data/history.db",
			Sources:     cli.EnvVars("SORTIR_HISTORY_DB"),
			Destination: &h.dbPath,
		},
	}
}

// Backend returns the configured backend type
func (h *History) Backend() string {
	return h.backend
}

// Configure initializes and returns a history repository based on the
// configured backend. The caller is responsible for calling Close() on
// the returned repository.
func (h *History) Configure() (interfaces.HistoryRepository, error) {
	switch h.backend {
	case "sqlite":
		if h.dbPath == "" {
			return nil, goerr.New("history-db is required when using sqlite backend")
		}
		repo, err := sqlite.New(h.dbPath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite history repository")
		}
		logging.Default().Info("Using SQLite history repository", "path", h.dbPath)
		return repo, nil

	case "memory":
		logging.Default().Info("Using in-memory history repository")
		return memory.New(), nil

	default:
		return nil, goerr.New("invalid history backend", goerr.V("backend", h.backend))
	}
}
