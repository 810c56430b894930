package task

import "context"

// Service is the confirmation backend for optimistic mutations.
// The dispatcher applies a mutation locally first, then awaits the
// corresponding Service call out-of-band to commit or roll back.
type Service interface {
	// Create persists a new task and returns it with the
	// backend-assigned ID populated.
	Create(ctx context.Context, t Task) (Task, error)

	// Update applies a partial update to an existing task.
	// Returns ErrNotFound if the task does not exist.
	Update(ctx context.Context, id ID, patch Patch) (Task, error)

	// Delete removes a task. Returns false (and no error) if the
	// task was already absent.
	Delete(ctx context.Context, id ID) (bool, error)
}
