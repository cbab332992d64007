package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/timmy/analystai/internal/domain"
)

var (
	// ErrTaskNotFound is returned when a task id is not in the registry.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskFinalized is returned when a task already reached a terminal state.
	ErrTaskFinalized = errors.New("task already finalized")

	// ErrInvalidTransition is returned when a patch does not move a task to a terminal state.
	ErrInvalidTransition = errors.New("invalid task status transition")
)

// TaskRegistry is the in-memory task_id -> task store shared by the HTTP layer
// and extraction workers. It is empty at startup and discarded at exit.
//
// Stored tasks are treated as immutable: Update swaps in a patched copy under the
// shard lock, so readers cloning an older pointer never race with the writer.
type TaskRegistry struct {
	tasks cmap.ConcurrentMap[string, *domain.Task]
	newID func() string
	now   func() time.Time
}

// NewTaskRegistry creates an empty registry.
// Parameters: none.
// Returns:
//   - *TaskRegistry: registry ready for use.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: cmap.New[*domain.Task](),
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Create inserts a new processing task for reportID and returns a snapshot of it.
// Parameters:
//   - reportID: caller-supplied source document identifier.
//
// Returns:
//   - *domain.Task: copy of the inserted task.
func (r *TaskRegistry) Create(reportID string) *domain.Task {
	for {
		task := domain.NewTask(r.newID(), reportID, r.now())
		if r.tasks.SetIfAbsent(task.ID, task) {
			return task.Clone()
		}
	}
}

// Get returns a snapshot of the task with the given id.
// Parameters:
//   - id: task identifier.
//
// Returns:
//   - *domain.Task: copy of the stored task.
//   - error: ErrTaskNotFound if the id is unknown.
func (r *TaskRegistry) Get(id string) (*domain.Task, error) {
	task, ok := r.tasks.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return task.Clone(), nil
}

// Update applies a terminal patch to the task and refreshes updated_at.
// Only a processing task may be patched, and only into a terminal state, so each
// id sees at most one write after creation.
// Parameters:
//   - id: task identifier.
//   - patch: terminal mutation to merge.
//
// Returns:
//   - *domain.Task: copy of the updated task.
//   - error: ErrTaskNotFound, ErrTaskFinalized or ErrInvalidTransition.
func (r *TaskRegistry) Update(id string, patch domain.TaskPatch) (*domain.Task, error) {
	if !patch.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: to %q", ErrInvalidTransition, patch.Status)
	}
	// Tasks are never removed, so presence checked here still holds inside Upsert.
	if !r.tasks.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	var updateErr error
	updated := r.tasks.Upsert(id, nil, func(exist bool, current, _ *domain.Task) *domain.Task {
		if current.Status.IsTerminal() {
			updateErr = fmt.Errorf("%w: %s is %s", ErrTaskFinalized, id, current.Status)
			return current
		}
		next := current.Clone()
		patch.Apply(next, r.now())
		return next
	})
	if updateErr != nil {
		return nil, updateErr
	}
	return updated.Clone(), nil
}

// Count returns the number of tracked tasks.
func (r *TaskRegistry) Count() int {
	return r.tasks.Count()
}

// CountByStatus returns the number of tracked tasks per status.
func (r *TaskRegistry) CountByStatus() map[domain.TaskStatus]int {
	counts := make(map[domain.TaskStatus]int, 3)
	for item := range r.tasks.IterBuffered() {
		counts[item.Val.Status]++
	}
	return counts
}
