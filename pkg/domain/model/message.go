package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/sortir-lab/sortir/pkg/domain/types"
)

// SessionID is a UUID-based identifier for a conversation session
type SessionID string

// NewSessionID generates a new UUID v4 SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// Message is one conversation turn. The engine only ever receives a
// bounded, chronologically ordered window of these.
type Message struct {
	Role      types.Role `json:"role"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at,omitzero"`
}
