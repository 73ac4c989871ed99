package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
	"github.com/sortir-lab/sortir/pkg/service/indexer"
	"github.com/sortir-lab/sortir/pkg/utils/async"
	"github.com/sortir-lab/sortir/pkg/utils/logging"
)

// progressBuffer bounds the rebuild progress queue; the builder drops
// events rather than blocking when the consumer lags.
const progressBuffer = 16

// StartRebuild launches a background index rebuild and returns its task
// record. Only one rebuild may run at a time: two builders writing the
// same target location would race.
func (uc *UseCases) StartRebuild(ctx context.Context) (*model.RebuildTask, error) {
	if uc.newRebuilder == nil {
		return nil, goerr.New("rebuild is not configured")
	}
	if !uc.rebuilding.CompareAndSwap(false, true) {
		return nil, goerr.New("a rebuild is already in progress", goerr.T(types.TagConflict))
	}

	progress := make(chan indexer.Progress, progressBuffer)
	rebuilder, err := uc.newRebuilder(progress)
	if err != nil {
		uc.rebuilding.Store(false)
		return nil, goerr.Wrap(err, "failed to create rebuilder")
	}

	task := model.NewRebuildTask()
	uc.putTask(task)

	// Consume progress events from the build goroutine; the channel is
	// closed when the build finishes either way.
	go func() {
		for p := range progress {
			uc.updateTask(task.ID, func(t *model.RebuildTask) {
				t.Progress = p.Percent
				t.Message = p.Message
			})
		}
	}()

	async.Dispatch(ctx, func(ctx context.Context) error {
		defer close(progress)
		defer uc.rebuilding.Store(false)

		stats, err := rebuilder.Rebuild(ctx)
		if err != nil {
			wrapped := goerr.Wrap(err, "index rebuild failed",
				goerr.V("task_id", task.ID), goerr.T(types.TagRebuild))
			uc.updateTask(task.ID, func(t *model.RebuildTask) {
				t.Status = types.TaskStatusFailed
				t.Error = err.Error()
				t.Message = "Reconstruction échouée"
			})
			return wrapped
		}

		// The new generation is durably on disk; only now may the
		// cached engine be dropped. In-flight calls keep their snapshot.
		uc.handle.Invalidate()

		uc.updateTask(task.ID, func(t *model.RebuildTask) {
			t.Status = types.TaskStatusCompleted
			t.Progress = 1.0
			t.Message = "Reconstruction terminée"
			t.Stats = stats
		})

		logging.From(ctx).Info("index rebuild completed",
			"task_id", task.ID,
			"documents", stats.DocumentsProcessed,
			"vectors", stats.IndexVectors,
			"elapsed_seconds", stats.ElapsedSeconds,
		)
		return nil
	})

	return uc.copyTask(task.ID)
}

// GetRebuildTask returns the current state of a rebuild task
func (uc *UseCases) GetRebuildTask(ctx context.Context, id model.TaskID) (*model.RebuildTask, error) {
	task, err := uc.copyTask(id)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (uc *UseCases) putTask(task *model.RebuildTask) {
	uc.tasksMu.Lock()
	defer uc.tasksMu.Unlock()
	uc.tasks[task.ID] = task
}

func (uc *UseCases) updateTask(id model.TaskID, fn func(*model.RebuildTask)) {
	uc.tasksMu.Lock()
	defer uc.tasksMu.Unlock()

	task, ok := uc.tasks[id]
	if !ok {
		return
	}
	// Terminal states never regress from late progress events
	if task.Status.IsTerminal() {
		return
	}
	fn(task)
	task.UpdatedAt = time.Now().UTC()
}

func (uc *UseCases) copyTask(id model.TaskID) (*model.RebuildTask, error) {
	uc.tasksMu.RLock()
	defer uc.tasksMu.RUnlock()

	task, ok := uc.tasks[id]
	if !ok {
		return nil, goerr.New("rebuild task not found",
			goerr.V("task_id", id), goerr.T(types.TagNotFound))
	}
	copied := *task
	return &copied, nil
}
