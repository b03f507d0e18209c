package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskflow/internal/model"
)

// errNoChange lets a mutateTask callback skip the write (and the
// updated_at bump) when the requested state already holds.
var errNoChange = errors.New("no change")

// CreateTask inserts a task at the end of the global order. The title is
// trimmed and must not be empty; a non-nil ListID must name an existing list.
func (s *SQLiteStore) CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("creating task: title must not be empty")
	}
	priority, err := model.ParsePriority(string(in.Priority))
	if err != nil {
		return nil, invalid("creating task: %v", err)
	}

	now := s.now().UTC()
	task := model.Task{
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		ListID:      in.ListID,
		Tags:        normalizeTags(in.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.DueDate != nil {
		d := in.DueDate.UTC()
		task.DueDate = &d
	}

	err = s.withTx(ctx, "creating task", func(tx *sqlx.Tx, cs *changeSet) error {
		if task.ListID != nil {
			ok, err := listExists(ctx, tx, *task.ListID)
			if err != nil {
				return storeFailure("creating task", err)
			}
			if !ok {
				return notFound("list", *task.ListID)
			}
		}

		// Append after the last live task, or seed from the clock.
		var maxOrder sql.NullInt64
		err := tx.GetContext(ctx, &maxOrder,
			"SELECT MAX(sort_order) FROM tasks WHERE is_deleted = 0")
		if err != nil {
			return storeFailure("creating task", fmt.Errorf("getting max sort_order: %w", err))
		}
		if maxOrder.Valid {
			task.Order = maxOrder.Int64 + model.OrderStep
		} else {
			task.Order = now.UnixMilli()
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (
				title, description, is_completed, due_date, priority,
				list_id, sort_order, subtasks, is_deleted, created_at, updated_at
			) VALUES (?, ?, 0, ?, ?, ?, ?, '[]', 0, ?, ?)`,
			task.Title, task.Description, task.DueDate, string(task.Priority),
			task.ListID, task.Order, task.CreatedAt, task.UpdatedAt,
		)
		if err != nil {
			return storeFailure("creating task", err)
		}
		task.ID, err = res.LastInsertId()
		if err != nil {
			return storeFailure("creating task", err)
		}

		if err := setTaskTags(ctx, tx, task.ID, task.Tags, cs); err != nil {
			return err
		}
		cs.add(CollectionTasks, task.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask merges patch into the task and refreshes updated_at.
func (s *SQLiteStore) UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) error {
	return s.mutateTask(ctx, "updating task", id, func(tx *sqlx.Tx, t *model.Task) error {
		patch.Apply(t)
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			return invalid("updating task %d: title must not be empty", id)
		}
		p, err := model.ParsePriority(string(t.Priority))
		if err != nil {
			return invalid("updating task %d: %v", id, err)
		}
		t.Priority = p
		if patch.ListID != nil {
			ok, err := listExists(ctx, tx, *patch.ListID)
			if err != nil {
				return storeFailure("updating task", err)
			}
			if !ok {
				return notFound("list", *patch.ListID)
			}
		}
		if patch.Tags != nil {
			t.Tags = normalizeTags(t.Tags)
		}
		return nil
	})
}

// SetTaskCompletion marks the task done or not done.
func (s *SQLiteStore) SetTaskCompletion(ctx context.Context, id int64, done bool) error {
	return s.UpdateTask(ctx, id, model.TaskPatch{IsCompleted: model.Ptr(done)})
}

// ToggleTaskCompletion flips is_completed.
func (s *SQLiteStore) ToggleTaskCompletion(ctx context.Context, id int64) error {
	return s.mutateTask(ctx, "toggling task", id, func(_ *sqlx.Tx, t *model.Task) error {
		t.IsCompleted = !t.IsCompleted
		return nil
	})
}

// SoftDeleteTask moves the task to the trash.
func (s *SQLiteStore) SoftDeleteTask(ctx context.Context, id int64) error {
	return s.UpdateTask(ctx, id, model.TaskPatch{IsDeleted: model.Ptr(true)})
}

// RestoreTask takes the task out of the trash.
func (s *SQLiteStore) RestoreTask(ctx context.Context, id int64) error {
	return s.UpdateTask(ctx, id, model.TaskPatch{IsDeleted: model.Ptr(false)})
}

// HardDeleteTask removes the row. A missing id is not an error.
func (s *SQLiteStore) HardDeleteTask(ctx context.Context, id int64) error {
	return s.withTx(ctx, "deleting task", func(tx *sqlx.Tx, cs *changeSet) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
		if err != nil {
			return storeFailure(fmt.Sprintf("deleting task %d", id), err)
		}
		if rowsAffected(res) > 0 {
			cs.add(CollectionTasks, id)
		}
		return nil
	})
}

// EmptyTrash hard-deletes every trashed task and returns how many went.
func (s *SQLiteStore) EmptyTrash(ctx context.Context) (int, error) {
	var n int
	err := s.withTx(ctx, "emptying trash", func(tx *sqlx.Tx, cs *changeSet) error {
		var ids []int64
		if err := tx.SelectContext(ctx, &ids,
			"SELECT id FROM tasks WHERE is_deleted = 1 ORDER BY id"); err != nil {
			return storeFailure("emptying trash", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE is_deleted = 1"); err != nil {
			return storeFailure("emptying trash", err)
		}
		n = len(ids)
		cs.add(CollectionTasks, ids...)
		return nil
	})
	return n, err
}

// ReorderTasks sets the order of ids[i] to i*OrderStep in one transaction.
// Tasks not named keep their order. Unknown ids fail the whole call with
// ErrNotFound; trashed or repeated ids with ErrInvalidOperation.
func (s *SQLiteStore) ReorderTasks(ctx context.Context, ids []int64) error {
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return invalid("reordering tasks: task %d listed twice", id)
		}
		seen[id] = true
	}
	if len(ids) == 0 {
		return nil
	}

	now := s.now().UTC()
	return s.withTx(ctx, "reordering tasks", func(tx *sqlx.Tx, cs *changeSet) error {
		query, args, err := sqlx.In("SELECT id, is_deleted FROM tasks WHERE id IN (?)", ids)
		if err != nil {
			return storeFailure("reordering tasks", err)
		}
		rows, err := tx.QueryxContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return storeFailure("reordering tasks", err)
		}
		deleted := make(map[int64]bool, len(ids))
		for rows.Next() {
			var id int64
			var deletedInt int
			if err := rows.Scan(&id, &deletedInt); err != nil {
				rows.Close()
				return storeFailure("reordering tasks", err)
			}
			deleted[id] = deletedInt != 0
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return storeFailure("reordering tasks", err)
		}
		rows.Close()

		for _, id := range ids {
			isDeleted, ok := deleted[id]
			if !ok {
				return notFound("task", id)
			}
			if isDeleted {
				return invalid("reordering tasks: task %d is in the trash", id)
			}
		}

		for i, id := range ids {
			_, err := tx.ExecContext(ctx,
				"UPDATE tasks SET sort_order = ?, updated_at = ? WHERE id = ?",
				int64(i)*model.OrderStep, now, id,
			)
			if err != nil {
				return storeFailure(fmt.Sprintf("reordering task %d", id), err)
			}
		}
		cs.add(CollectionTasks, ids...)
		return nil
	})
}

// NormalizeOrder renumbers every live task to i*OrderStep following the
// current (sort_order, id) sequence. Trashed tasks keep their order.
func (s *SQLiteStore) NormalizeOrder(ctx context.Context) error {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		"SELECT id FROM tasks WHERE is_deleted = 0 ORDER BY sort_order, id")
	if err != nil {
		return storeFailure("normalizing order", err)
	}
	return s.ReorderTasks(ctx, ids)
}

// GetTaskByID retrieves a single task with its tags, trashed or not.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id int64) (*model.Task, error) {
	return loadTask(ctx, s.db, id)
}

// GetTasks retrieves tasks matching the filter, ordered by sort_order, id.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery(filter)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, storeFailure("querying tasks", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, storeFailure("querying tasks", err)
		}
		if !dueInRange(task, filter) || !matchesQuery(task, filter) {
			continue
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("querying tasks", err)
	}
	rows.Close()

	if err := attachTags(ctx, s.db, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// mutateTask loads task id inside a transaction, lets fn modify it and
// writes the whole row back with a fresh updated_at.
func (s *SQLiteStore) mutateTask(
	ctx context.Context,
	op string,
	id int64,
	fn func(tx *sqlx.Tx, t *model.Task) error,
) error {
	err := s.withTx(ctx, op, func(tx *sqlx.Tx, cs *changeSet) error {
		task, err := loadTask(ctx, tx, id)
		if err != nil {
			return err
		}
		before := append([]string(nil), task.Tags...)
		if err := fn(tx, task); err != nil {
			return err
		}
		task.UpdatedAt = s.now().UTC()
		if err := writeTask(ctx, tx, task); err != nil {
			return storeFailure(fmt.Sprintf("%s %d", op, id), err)
		}
		if !slices.Equal(before, task.Tags) {
			if err := setTaskTags(ctx, tx, id, task.Tags, cs); err != nil {
				return err
			}
		}
		cs.add(CollectionTasks, id)
		return nil
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	return err
}

// loadTask reads one task row plus its tags.
func loadTask(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.Task, error) {
	row := q.QueryRowxContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("task", id)
	}
	if err != nil {
		return nil, storeFailure(fmt.Sprintf("getting task %d", id), err)
	}
	tasks := []model.Task{task}
	if err := attachTags(ctx, q, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// writeTask stores every column of t except id and created_at.
func writeTask(ctx context.Context, tx *sqlx.Tx, t *model.Task) error {
	subtasks, err := json.Marshal(nonNilSubtasks(t.Subtasks))
	if err != nil {
		return fmt.Errorf("marshaling subtasks: %w", err)
	}
	var due any
	if t.DueDate != nil {
		due = t.DueDate.UTC()
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, is_completed = ?, due_date = ?,
			priority = ?, list_id = ?, sort_order = ?, subtasks = ?,
			is_deleted = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, boolToInt(t.IsCompleted), due,
		string(t.Priority), t.ListID, t.Order, string(subtasks),
		boolToInt(t.IsDeleted), t.UpdatedAt,
		t.ID,
	)
	return err
}

// setTaskTags replaces the task's labels and registers any new names.
func setTaskTags(ctx context.Context, tx *sqlx.Tx, taskID int64, tags []string, cs *changeSet) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM task_tags WHERE task_id = ?", taskID); err != nil {
		return storeFailure("setting task tags", err)
	}
	for i, name := range tags {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO task_tags (task_id, name, position) VALUES (?, ?, ?)",
			taskID, name, i)
		if err != nil {
			return storeFailure("setting task tags", err)
		}
		res, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO tags (name) VALUES (?)", name)
		if err != nil {
			return storeFailure("registering tag", err)
		}
		if rowsAffected(res) > 0 {
			tagID, _ := res.LastInsertId()
			cs.add(CollectionTags, tagID)
		}
	}
	return nil
}

// attachTags fills Tags for every task in one query.
func attachTags(ctx context.Context, q sqlx.QueryerContext, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	index := make(map[int64]int, len(tasks))
	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		index[t.ID] = i
		ids[i] = t.ID
	}

	query, args, err := sqlx.In(
		"SELECT task_id, name FROM task_tags WHERE task_id IN (?) ORDER BY task_id, position", ids)
	if err != nil {
		return storeFailure("loading task tags", err)
	}
	rows, err := q.QueryxContext(ctx, sqlx.Rebind(sqlx.QUESTION, query), args...)
	if err != nil {
		return storeFailure("loading task tags", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID int64
		var name string
		if err := rows.Scan(&taskID, &name); err != nil {
			return storeFailure("loading task tags", err)
		}
		i := index[taskID]
		tasks[i].Tags = append(tasks[i].Tags, name)
	}
	if err := rows.Err(); err != nil {
		return storeFailure("loading task tags", err)
	}
	return nil
}

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
// Due-date bounds and the text query are applied after scanning.
func buildTaskQuery(filter TaskFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	switch {
	case filter.OnlyDeleted:
		conditions = append(conditions, "tasks.is_deleted = 1")
	case !filter.IncludeDeleted:
		conditions = append(conditions, "tasks.is_deleted = 0")
	}
	if filter.Completed != nil {
		conditions = append(conditions, "tasks.is_completed = ?")
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.ListID != nil {
		if *filter.ListID == model.DefaultListID {
			conditions = append(conditions, "(tasks.list_id IS NULL OR tasks.list_id = ?)")
		} else {
			conditions = append(conditions, "tasks.list_id = ?")
		}
		args = append(args, *filter.ListID)
	}
	if filter.Tag != nil {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM task_tags WHERE task_tags.task_id = tasks.id AND task_tags.name = ?)")
		args = append(args, *filter.Tag)
	}
	if filter.DueAfter != nil || filter.DueBefore != nil {
		conditions = append(conditions, "tasks.due_date IS NOT NULL")
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY tasks.sort_order, tasks.id"
	return query, args
}

func dueInRange(t model.Task, filter TaskFilter) bool {
	if filter.DueAfter == nil && filter.DueBefore == nil {
		return true
	}
	if t.DueDate == nil {
		return false
	}
	if filter.DueAfter != nil && t.DueDate.Before(*filter.DueAfter) {
		return false
	}
	if filter.DueBefore != nil && !t.DueDate.Before(*filter.DueBefore) {
		return false
	}
	return true
}

// matchesQuery folds case in Go rather than with SQLite's LOWER, which
// only folds ASCII.
func matchesQuery(t model.Task, filter TaskFilter) bool {
	if filter.Query == nil || *filter.Query == "" {
		return true
	}
	q := strings.ToLower(*filter.Query)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// normalizeTags trims names, drops empties and keeps the first of duplicates.
func normalizeTags(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func nonNilSubtasks(s []model.Subtask) []model.Subtask {
	if s == nil {
		return []model.Subtask{}
	}
	return s
}
