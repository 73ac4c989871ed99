package interfaces

import (
	"context"

	"github.com/sortir-lab/sortir/pkg/domain/model"
)

// HistoryRepository is the conversation history provider. The core only
// ever reads a bounded window of recent messages; trimming beyond that
// window is the backend's concern.
type HistoryRepository interface {
	// CreateSession registers a new empty session and returns its ID.
	CreateSession(ctx context.Context) (model.SessionID, error)

	// Append adds one message to the session, creating the session if
	// it does not exist yet.
	Append(ctx context.Context, sessionID model.SessionID, msg *model.Message) error

	// GetRecent returns up to limit most recent messages in
	// chronological order (oldest first). An unknown session yields an
	// empty slice, not an error.
	GetRecent(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.Message, error)

	// Close releases backend resources.
	Close() error
}
