package vectorstore

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/utils/safe"
)

// Persisted index directory layout:
//
//	<dir>/events.index    binary vector data
//	<dir>/documents.json  same-generation document snapshot
//	<dir>/config.json     Descriptor
//
// The legacy layout omits documents.json and records the external
// snapshot path in the descriptor instead (see loader.go).
const (
	indexFileName     = "events.index"
	documentsFileName = "documents.json"
	configFileName    = "config.json"

	indexTypeFlatL2 = "FlatL2"
)

// events.index binary header
const (
	indexMagic   = uint32(0x53525449) // "SRTI"
	indexVersion = uint32(1)
)

// Save writes the store into dir using the bundled layout. The directory
// is created if missing. Atomicity across generations is the caller's
// concern (write to a fresh directory, then swap).
func Save(ctx context.Context, store *Store, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create index directory", goerr.V("dir", dir))
	}

	if err := writeIndexFile(ctx, store.index, filepath.Join(dir, indexFileName)); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(dir, documentsFileName), store.documents); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(dir, configFileName), store.descriptor); err != nil {
		return err
	}

	return nil
}

func writeIndexFile(ctx context.Context, index *FlatIndex, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return goerr.Wrap(err, "failed to create index file", goerr.V("path", path))
	}
	defer safe.Close(ctx, f)

	w := bufio.NewWriter(f)
	header := []uint32{indexMagic, indexVersion, uint32(index.dim), uint32(index.Len())}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return goerr.Wrap(err, "failed to write index header", goerr.V("path", path))
		}
	}
	if err := binary.Write(w, binary.LittleEndian, index.vectors); err != nil {
		return goerr.Wrap(err, "failed to write index vectors", goerr.V("path", path))
	}
	if err := w.Flush(); err != nil {
		return goerr.Wrap(err, "failed to flush index file", goerr.V("path", path))
	}
	if err := f.Sync(); err != nil {
		return goerr.Wrap(err, "failed to sync index file", goerr.V("path", path))
	}
	return nil
}

func readIndexFile(ctx context.Context, path string) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open index file", goerr.V("path", path))
	}
	defer safe.Close(ctx, f)

	r := bufio.NewReader(f)
	var magic, version, dim, count uint32
	for _, dst := range []*uint32{&magic, &version, &dim, &count} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, goerr.Wrap(err, "failed to read index header", goerr.V("path", path))
		}
	}
	if magic != indexMagic {
		return nil, goerr.New("not an index file", goerr.V("path", path), goerr.V("magic", magic))
	}
	if version != indexVersion {
		return nil, goerr.New("unsupported index file version",
			goerr.V("path", path), goerr.V("version", version))
	}

	index, err := NewFlatIndex(int(dim))
	if err != nil {
		return nil, err
	}
	index.vectors = make([]float32, int(dim)*int(count))
	if err := binary.Read(r, binary.LittleEndian, index.vectors); err != nil {
		return nil, goerr.Wrap(err, "failed to read index vectors", goerr.V("path", path))
	}
	return index, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal", goerr.V("path", path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write file", goerr.V("path", path))
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read file", goerr.V("path", path))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return goerr.Wrap(err, "failed to unmarshal", goerr.V("path", path))
	}
	return nil
}
