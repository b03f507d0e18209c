package store

import (
	"context"
	"time"

	"github.com/nhle/taskflow/internal/model"
)

// TaskFilter controls which tasks GetTasks returns. Results are always
// ordered by sort_order, then id.
type TaskFilter struct {
	IncludeDeleted bool       // include trashed tasks alongside live ones
	OnlyDeleted    bool       // return trashed tasks only; wins over IncludeDeleted
	Completed      *bool      // nil (all), true or false
	ListID         *int64     // DefaultListID also matches tasks with no list
	Tag            *string    // label name
	DueAfter       *time.Time // due date at or after, tasks without one excluded
	DueBefore      *time.Time // due date strictly before, tasks without one excluded
	Query          *string    // substring of title or description, Unicode case folded
}

// Store defines the persistence interface for tasks, lists and labels.
// Every mutation runs in a single transaction and notifies subscribers after
// it commits.
type Store interface {
	// === Tasks ===

	CreateTask(ctx context.Context, in model.NewTask) (*model.Task, error)
	UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) error
	SetTaskCompletion(ctx context.Context, id int64, done bool) error
	ToggleTaskCompletion(ctx context.Context, id int64) error
	SoftDeleteTask(ctx context.Context, id int64) error
	RestoreTask(ctx context.Context, id int64) error
	HardDeleteTask(ctx context.Context, id int64) error
	EmptyTrash(ctx context.Context) (int, error)
	ReorderTasks(ctx context.Context, ids []int64) error
	NormalizeOrder(ctx context.Context) error
	GetTaskByID(ctx context.Context, id int64) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)

	// === Subtasks ===

	AddSubtask(ctx context.Context, taskID int64, title string) (*model.Subtask, error)
	ToggleSubtask(ctx context.Context, taskID int64, subtaskID string) error
	DeleteSubtask(ctx context.Context, taskID int64, subtaskID string) error
	SetSubtaskDueDate(ctx context.Context, taskID int64, subtaskID string, due *time.Time) error

	// === Lists ===

	CreateList(ctx context.Context, l model.TaskList) (*model.TaskList, error)
	UpdateList(ctx context.Context, id int64, patch model.ListPatch) error
	DeleteList(ctx context.Context, id int64) error
	GetLists(ctx context.Context) ([]model.TaskList, error)
	GetListByID(ctx context.Context, id int64) (*model.TaskList, error)

	// === Labels ===

	CreateTag(ctx context.Context, t model.Tag) (*model.Tag, error)
	DeleteTag(ctx context.Context, name string) error
	GetTags(ctx context.Context) ([]model.Tag, error)

	// === Change feed ===

	Subscribe(collections ...Collection) (<-chan Change, func())
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
