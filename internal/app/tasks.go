package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/dnd"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/internal/ui/detail"
	"github.com/nhle/taskflow/internal/ui/taskform"
)

// mutationDoneMsg reports the outcome of a store mutation. Fresh data
// arrives separately through the live queries.
//
// Mutations are pushed onto the write queue rather than returned as
// commands, so the helpers below return a nil tea.Cmd; outcomes come back
// wrapped in live.Done.
type mutationDoneMsg struct {
	status string
	err    error
}

// taskCreatedMsg carries the id of a new task so it can be selected once
// the task query catches up.
type taskCreatedMsg struct {
	id  int64
	err error
}

// mutate queues fn to run against the store off the UI goroutine, after
// every mutation queued before it.
func (m *Model) mutate(status string, fn func(ctx context.Context, s store.Store) error) tea.Cmd {
	s := m.store
	m.writes.Push(func() tea.Msg {
		err := fn(context.Background(), s)
		return mutationDoneMsg{status: status, err: err}
	})
	return nil
}

// submitTask persists a task form submission.
func (m *Model) submitTask(msg taskform.SubmitMsg) tea.Cmd {
	s := m.store
	if msg.EditID == 0 {
		m.writes.Push(func() tea.Msg {
			t, err := s.CreateTask(context.Background(), msg.NewTask())
			if err != nil {
				return taskCreatedMsg{err: err}
			}
			return taskCreatedMsg{id: t.ID}
		})
		return nil
	}
	return m.mutate("Task saved", func(ctx context.Context, s store.Store) error {
		return s.UpdateTask(ctx, msg.EditID, msg.Patch())
	})
}

func (m *Model) toggleTask(t model.Task) tea.Cmd {
	status := "Completed " + quote(t.Title)
	if t.IsCompleted {
		status = "Reopened " + quote(t.Title)
	}
	return m.mutate(status, func(ctx context.Context, s store.Store) error {
		return s.ToggleTaskCompletion(ctx, t.ID)
	})
}

func (m *Model) trashTask(t model.Task) tea.Cmd {
	return m.mutate("Moved "+quote(t.Title)+" to trash, u in Trash restores it", func(ctx context.Context, s store.Store) error {
		return s.SoftDeleteTask(ctx, t.ID)
	})
}

func (m *Model) restoreTask(t model.Task) tea.Cmd {
	return m.mutate("Restored "+quote(t.Title), func(ctx context.Context, s store.Store) error {
		return s.RestoreTask(ctx, t.ID)
	})
}

func (m *Model) purgeTask(id int64) tea.Cmd {
	return m.mutate("Deleted forever", func(ctx context.Context, s store.Store) error {
		return s.HardDeleteTask(ctx, id)
	})
}

func (m *Model) emptyTrash() tea.Cmd {
	s := m.store
	m.writes.Push(func() tea.Msg {
		n, err := s.EmptyTrash(context.Background())
		return mutationDoneMsg{status: fmt.Sprintf("Emptied trash (%d tasks)", n), err: err}
	})
	return nil
}

// drop resolves a drop of task taskID onto target against the
// displayed sequence and applies it.
func (m *Model) drop(taskID int64, target dnd.Target) tea.Cmd {
	intent := dnd.Resolve(taskID, target, m.taskList.Displayed())
	if intent.Kind == dnd.IntentNone {
		return nil
	}
	at := m.now()
	status := ""
	switch intent.Kind {
	case dnd.IntentMoveToList:
		status = "Moved to " + m.catalog.listName(intent.ListID)
	case dnd.IntentMoveToInbox:
		status = "Moved to Inbox"
	case dnd.IntentMoveToToday:
		status = "Due today"
	}
	s := m.store
	m.writes.Push(func() tea.Msg {
		err := dnd.Apply(context.Background(), s, intent, at)
		return mutationDoneMsg{status: status, err: err}
	})
	return nil
}

// subtaskAction runs the detail view's subtask requests. Add and due date
// first open a dialog for their input.
func (m *Model) subtaskAction(msg detail.SubtaskActionMsg) tea.Cmd {
	switch msg.Action {
	case detail.SubtaskAdd:
		return m.openDialog(newSubtaskTitleDialog(msg.TaskID, m.dialogWidth()))
	case detail.SubtaskDue:
		return m.openDialog(newSubtaskDueDialog(msg.TaskID, msg.SubtaskID, m.loc, m.now, m.dialogWidth()))
	case detail.SubtaskToggle:
		return m.mutate("", func(ctx context.Context, s store.Store) error {
			return s.ToggleSubtask(ctx, msg.TaskID, msg.SubtaskID)
		})
	case detail.SubtaskDelete:
		return m.mutate("Subtask deleted", func(ctx context.Context, s store.Store) error {
			return s.DeleteSubtask(ctx, msg.TaskID, msg.SubtaskID)
		})
	}
	return nil
}

func (m *Model) addSubtask(taskID int64, title string) tea.Cmd {
	return m.mutate("Subtask added", func(ctx context.Context, s store.Store) error {
		_, err := s.AddSubtask(ctx, taskID, title)
		return err
	})
}

func (m *Model) setSubtaskDue(taskID int64, subtaskID string, due *time.Time) tea.Cmd {
	return m.mutate("Subtask due date set", func(ctx context.Context, s store.Store) error {
		return s.SetSubtaskDueDate(ctx, taskID, subtaskID, due)
	})
}

func quote(s string) string {
	if len([]rune(s)) > 30 {
		s = string([]rune(s)[:29]) + "…"
	}
	return fmt.Sprintf("%q", s)
}
