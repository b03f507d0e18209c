package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskflow/internal/model"
)

// AddSubtask appends a new subtask with a fresh UUID to the task.
func (s *SQLiteStore) AddSubtask(ctx context.Context, taskID int64, title string) (*model.Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, invalid("adding subtask to task %d: title must not be empty", taskID)
	}
	sub := model.Subtask{ID: uuid.New().String(), Title: title}

	err := s.mutateTask(ctx, "adding subtask", taskID, func(_ *sqlx.Tx, t *model.Task) error {
		t.Subtasks = append(t.Subtasks, sub)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ToggleSubtask flips the completion of one subtask.
func (s *SQLiteStore) ToggleSubtask(ctx context.Context, taskID int64, subtaskID string) error {
	return s.mutateTask(ctx, "toggling subtask", taskID, func(_ *sqlx.Tx, t *model.Task) error {
		i := t.SubtaskIndex(subtaskID)
		if i < 0 {
			return notFound(fmt.Sprintf("subtask of task %d", taskID), subtaskID)
		}
		t.Subtasks[i].IsCompleted = !t.Subtasks[i].IsCompleted
		return nil
	})
}

// DeleteSubtask removes a subtask. A missing subtask is not an error, a
// missing task is.
func (s *SQLiteStore) DeleteSubtask(ctx context.Context, taskID int64, subtaskID string) error {
	return s.mutateTask(ctx, "deleting subtask", taskID, func(_ *sqlx.Tx, t *model.Task) error {
		i := t.SubtaskIndex(subtaskID)
		if i < 0 {
			return errNoChange
		}
		t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
		return nil
	})
}

// SetSubtaskDueDate sets or, with a nil due, clears a subtask's due date.
func (s *SQLiteStore) SetSubtaskDueDate(
	ctx context.Context,
	taskID int64,
	subtaskID string,
	due *time.Time,
) error {
	return s.mutateTask(ctx, "setting subtask due date", taskID, func(_ *sqlx.Tx, t *model.Task) error {
		i := t.SubtaskIndex(subtaskID)
		if i < 0 {
			return notFound(fmt.Sprintf("subtask of task %d", taskID), subtaskID)
		}
		if due == nil {
			t.Subtasks[i].DueDate = nil
		} else {
			d := due.UTC()
			t.Subtasks[i].DueDate = &d
		}
		return nil
	})
}
