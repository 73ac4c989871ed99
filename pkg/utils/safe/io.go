package safe

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/sortir-lab/sortir/pkg/utils/logging"
)

// Close safely closes an io.Closer and logs any errors.
// It handles nil closers gracefully.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

// Remove safely removes a file tree and logs any errors. Used for
// discarding temporary index generations.
func Remove(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		logging.From(ctx).Error("Failed to remove", slog.String("path", path), slog.Any("error", err))
	}
}
