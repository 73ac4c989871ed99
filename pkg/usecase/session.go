package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/model"
)

// CreateSession starts a new empty conversation session
func (uc *UseCases) CreateSession(ctx context.Context) (model.SessionID, error) {
	id, err := uc.history.CreateSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create session")
	}
	return id, nil
}

// SessionMessages returns up to limit most recent messages of a session
// in chronological order
func (uc *UseCases) SessionMessages(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.Message, error) {
	messages, err := uc.history.GetRecent(ctx, sessionID, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load session messages",
			goerr.V("session_id", sessionID))
	}
	return messages, nil
}
