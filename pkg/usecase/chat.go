package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
	"github.com/sortir-lab/sortir/pkg/utils/logging"
)

// Chat runs one conversation turn: read the recent history window, run
// the engine pipeline against a single index generation snapshot, then
// persist both turns. An empty session ID starts a new session.
func (uc *UseCases) Chat(ctx context.Context, sessionID model.SessionID, query string, topK int) (*model.ChatResult, model.SessionID, error) {
	if sessionID == "" {
		id, err := uc.history.CreateSession(ctx)
		if err != nil {
			return nil, "", goerr.Wrap(err, "failed to create session")
		}
		sessionID = id
	}

	history, err := uc.history.GetRecent(ctx, sessionID, uc.historyLimit)
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to load conversation history",
			goerr.V("session_id", sessionID))
	}

	engine, err := uc.handle.Acquire(ctx)
	if err != nil {
		return nil, "", err
	}

	result, err := engine.Chat(ctx, query, topK, history)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	turns := []*model.Message{
		{Role: types.RoleUser, Content: query, CreatedAt: now},
		{Role: types.RoleAssistant, Content: result.Response, CreatedAt: now},
	}
	for _, turn := range turns {
		if err := uc.history.Append(ctx, sessionID, turn); err != nil {
			// The answer is already produced; losing one history write
			// must not fail the call
			logging.From(ctx).Error("failed to persist conversation turn",
				"session_id", sessionID, "role", turn.Role, "error", err.Error())
		}
	}

	return result, sessionID, nil
}
