package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/sortir-lab/sortir/pkg/domain/types"
)

// TaskID is a UUID-based identifier for a rebuild task
type TaskID string

// NewTaskID generates a new UUID v4 TaskID
func NewTaskID() TaskID {
	return TaskID(uuid.New().String())
}

// RebuildStats summarizes a completed index rebuild
type RebuildStats struct {
	DocumentsProcessed int     `json:"documents_processed"`
	EmbeddingDimension int     `json:"embedding_dimension"`
	IndexVectors       int     `json:"index_vectors"`
	ElapsedSeconds     float64 `json:"elapsed_seconds"`
	Provider           string  `json:"provider"`
	Model              string  `json:"model"`
}

// RebuildTask tracks one background index rebuild. Tasks live only for
// the lifetime of the process; rebuilds are operator-triggered,
// infrequent events.
type RebuildTask struct {
	ID        TaskID           `json:"task_id"`
	Status    types.TaskStatus `json:"status"`
	Progress  float64          `json:"progress"`
	Message   string           `json:"message"`
	Stats     *RebuildStats    `json:"stats,omitempty"`
	Error     string           `json:"error,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewRebuildTask creates a task in the in_progress state
func NewRebuildTask() *RebuildTask {
	now := time.Now().UTC()
	return &RebuildTask{
		ID:        NewTaskID(),
		Status:    types.TaskStatusInProgress,
		Progress:  0,
		Message:   "Démarrage de la reconstruction",
		CreatedAt: now,
		UpdatedAt: now,
	}
}
