package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sortir-lab/sortir/pkg/domain/model"
)

// Repository is an in-memory conversation history store: a map of
// ordered message slices per session. Suitable for development and
// tests; history disappears with the process.
type Repository struct {
	mu       sync.RWMutex
	sessions map[model.SessionID][]*model.Message
}

// New creates an empty in-memory history repository
func New() *Repository {
	return &Repository{
		sessions: make(map[model.SessionID][]*model.Message),
	}
}

func copyMessage(msg *model.Message) *model.Message {
	copied := *msg
	return &copied
}

// CreateSession registers a new empty session
func (r *Repository) CreateSession(ctx context.Context) (model.SessionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := model.NewSessionID()
	r.sessions[id] = nil
	return id, nil
}

// Append adds a message to the session, creating the session if missing
func (r *Repository) Append(ctx context.Context, sessionID model.SessionID, msg *model.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyMessage(msg)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.sessions[sessionID] = append(r.sessions[sessionID], stored)
	return nil
}

// GetRecent returns up to limit most recent messages in chronological
// order. An unknown session yields an empty slice.
func (r *Repository) GetRecent(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	messages := r.sessions[sessionID]
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	result := make([]*model.Message, len(messages))
	for i, msg := range messages {
		result[i] = copyMessage(msg)
	}
	return result, nil
}

// Close is a no-op for the in-memory backend
func (r *Repository) Close() error {
	return nil
}
