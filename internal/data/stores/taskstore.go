package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taskdeck/taskdeck/internal/core/task"
	"github.com/taskdeck/taskdeck/internal/data/db"
	"github.com/taskdeck/taskdeck/pkg/randid"
)

// TaskStore implements task.Service using SQLite. It is the local
// stand-in for the remote task backend: optimistic mutations are
// confirmed against it.
type TaskStore struct {
	db *db.DB
}

var _ task.Service = (*TaskStore)(nil)

// NewTaskStore creates a new SQLite-backed task store.
func NewTaskStore(db *db.DB) *TaskStore {
	return &TaskStore{db: db}
}

// ListFilter controls which tasks are returned by List.
type ListFilter struct {
	Status   task.Status   // empty means all statuses
	Priority task.Priority // empty means all priorities
}

// Create persists a new task and returns it with the store-assigned ID.
// Temp IDs from optimistic creates are never persisted; the store always
// assigns its own.
func (s *TaskStore) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if t.ID == "" || t.ID.IsTemp() {
		t.ID = task.ID("task_" + randid.Generate(8))
	}

	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if t.Status == "" {
		t.Status = task.StatusPending
	}
	if t.Priority == "" {
		t.Priority = task.PriorityMedium
	}

	historyJSON, err := marshalHistory(t.History)
	if err != nil {
		return task.Task{}, err
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, history, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(t.ID), t.Title, t.Description, string(t.Status), string(t.Priority),
		historyJSON, t.CreatedAt.UnixNano(), t.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return task.Task{}, fmt.Errorf("create task %q: %w", t.ID, task.ErrDuplicateID)
		}
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}

	return t, nil
}

// Get returns a single task by ID. Returns task.ErrNotFound if absent.
func (s *TaskStore) Get(ctx context.Context, id task.ID) (task.Task, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, title, description, status, priority, history, created_at, updated_at
		FROM tasks WHERE id = ?`, string(id))

	t, err := scanTask(row)
	if err != nil {
		if IsNotFoundError(err) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// Update applies a partial update to an existing task inside a
// transaction, so the read-merge-write is atomic.
func (s *TaskStore) Update(ctx context.Context, id task.ID, patch task.Patch) (task.Task, error) {
	var out task.Task

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, title, description, status, priority, history, created_at, updated_at
			FROM tasks WHERE id = ?`, string(id))

		t, err := scanTask(row)
		if err != nil {
			if IsNotFoundError(err) {
				return task.ErrNotFound
			}
			return fmt.Errorf("get task for update: %w", err)
		}

		out = patch.Apply(t, "", time.Now())

		historyJSON, err := marshalHistory(out.History)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, history = ?, updated_at = ?
			WHERE id = ?`,
			out.Title, out.Description, string(out.Status), string(out.Priority),
			historyJSON, out.UpdatedAt.UnixNano(), string(id),
		)
		if err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		return nil
	})
	if err != nil {
		return task.Task{}, err
	}

	return out, nil
}

// Delete removes a task. Returns false without error when the task was
// already absent.
func (s *TaskStore) Delete(ctx context.Context, id task.ID) (bool, error) {
	res, err := s.db.Conn().ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, string(id))
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete task rows affected: %w", err)
	}
	return n > 0, nil
}

// List returns tasks matching the filter, ordered by created_at ASC.
func (s *TaskStore) List(ctx context.Context, filter ListFilter) ([]task.Task, error) {
	query := `
		SELECT id, title, description, status, priority, history, created_at, updated_at
		FROM tasks`
	args := []any{}

	switch {
	case filter.Status != "" && filter.Priority != "":
		query += ` WHERE status = ? AND priority = ?`
		args = append(args, string(filter.Status), string(filter.Priority))
	case filter.Status != "":
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	case filter.Priority != "":
		query += ` WHERE priority = ?`
		args = append(args, string(filter.Priority))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (task.Task, error) {
	var (
		t           task.Task
		id          string
		description sql.NullString
		status      string
		priority    string
		historyJSON string
		createdAt   int64
		updatedAt   int64
	)

	err := row.Scan(&id, &t.Title, &description, &status, &priority, &historyJSON, &createdAt, &updatedAt)
	if err != nil {
		return task.Task{}, err
	}

	t.ID = task.ID(id)
	t.Description = description.String
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	t.CreatedAt = time.Unix(0, createdAt)
	t.UpdatedAt = time.Unix(0, updatedAt)

	if historyJSON != "" && historyJSON != "[]" {
		if err := json.Unmarshal([]byte(historyJSON), &t.History); err != nil {
			return task.Task{}, fmt.Errorf("unmarshal task history: %w", err)
		}
	}

	return t, nil
}

func marshalHistory(history []task.ChangeEntry) (string, error) {
	if history == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("marshal task history: %w", err)
	}
	return string(raw), nil
}
