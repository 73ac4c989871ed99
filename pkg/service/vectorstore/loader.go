package vectorstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
)

// Load reconstructs a store from a persisted index directory. Two
// layouts are supported and probed by file presence:
//
//   - bundled: documents.json lives next to events.index (current
//     format, written by Save)
//   - legacy: no documents.json; config.json records the external
//     documents snapshot path
//
// Format detection stays here so the engine never has to know which
// generation of the on-disk layout it was handed.
func Load(ctx context.Context, dir string) (*Store, error) {
	indexPath := filepath.Join(dir, indexFileName)
	if _, err := os.Stat(indexPath); err != nil {
		return nil, goerr.Wrap(err, "index not found",
			goerr.V("path", indexPath), goerr.T(types.TagSourceNotFound))
	}

	if _, err := os.Stat(filepath.Join(dir, documentsFileName)); err == nil {
		return loadBundled(ctx, dir)
	}
	return loadLegacy(ctx, dir)
}

func loadBundled(ctx context.Context, dir string) (*Store, error) {
	index, err := readIndexFile(ctx, filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, err
	}

	var documents []*model.Document
	if err := readJSON(filepath.Join(dir, documentsFileName), &documents); err != nil {
		return nil, err
	}

	desc, err := loadDescriptor(dir, index)
	if err != nil {
		return nil, err
	}

	return NewStore(index, documents, desc)
}

// loadLegacy handles index directories written before documents were
// bundled with the index: the descriptor's documents_path points at the
// snapshot file.
func loadLegacy(ctx context.Context, dir string) (*Store, error) {
	index, err := readIndexFile(ctx, filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, err
	}

	desc, err := loadDescriptor(dir, index)
	if err != nil {
		return nil, err
	}
	if desc.DocumentsPath == "" {
		return nil, goerr.New("legacy index has no documents_path in descriptor",
			goerr.V("dir", dir), goerr.T(types.TagSourceNotFound))
	}

	var documents []*model.Document
	if err := readJSON(desc.DocumentsPath, &documents); err != nil {
		return nil, goerr.Wrap(err, "failed to load legacy documents snapshot",
			goerr.V("path", desc.DocumentsPath), goerr.T(types.TagSourceNotFound))
	}

	return NewStore(index, documents, desc)
}

func loadDescriptor(dir string, index *FlatIndex) (Descriptor, error) {
	var desc Descriptor
	configPath := filepath.Join(dir, configFileName)
	if _, err := os.Stat(configPath); err != nil {
		// Oldest indexes shipped without a descriptor at all; assume the
		// index shape and leave provider identity empty.
		return Descriptor{
			IndexType:    indexTypeFlatL2,
			EmbeddingDim: index.Dimension(),
			NumVectors:   index.Len(),
			Normalized:   true,
		}, nil
	}
	if err := readJSON(configPath, &desc); err != nil {
		return Descriptor{}, err
	}
	if desc.EmbeddingDim != 0 && desc.EmbeddingDim != index.Dimension() {
		return Descriptor{}, goerr.New("descriptor dimension does not match index file",
			goerr.V("descriptor", desc.EmbeddingDim), goerr.V("index", index.Dimension()),
			goerr.T(types.TagIndexIncompatible))
	}
	return desc, nil
}
