package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/sortir-lab/sortir/pkg/service/indexer"
)

// Index holds CLI flags for vector index location and build parameters
type Index struct {
	dir       string
	documents string
	batchSize int
}

// Flags returns CLI flags for index configuration
func (x *Index) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "index-dir",
			Usage:       "Directory holding the vector index files",
			Value:       "data/indexes/events",
			Sources:     cli.EnvVars("SORTIR_INDEX_DIR"),
			Destination: &x.dir,
		},
		&cli.StringFlag{
			Name:        "documents",
			Usage:       "Path to the processed document snapshot (JSON array)",
			Value:       "data/processed/rag_documents.json",
			Sources:     cli.EnvVars("SORTIR_DOCUMENTS"),
			Destination: &x.documents,
		},
		&cli.IntFlag{
			Name:        "batch-size",
			Usage:       "Number of documents embedded per provider call",
			Value:       indexer.DefaultBatchSize,
			Sources:     cli.EnvVars("SORTIR_BATCH_SIZE"),
			Destination: &x.batchSize,
		},
	}
}

// LogAttrs returns log attributes for the index configuration
func (x *Index) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("dir", x.dir),
		slog.String("documents", x.documents),
		slog.Int("batch_size", x.batchSize),
	}
}

// Dir returns the index directory
func (x *Index) Dir() string {
	return x.dir
}

// Documents returns the document snapshot path
func (x *Index) Documents() string {
	return x.documents
}

// BatchSize returns the embedding batch size
func (x *Index) BatchSize() int {
	return x.batchSize
}
