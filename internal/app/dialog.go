package app

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/taskflow/internal/dnd"
	"github.com/nhle/taskflow/internal/model"
)

type dialogKind int

const (
	dialogConfirmPurge dialogKind = iota
	dialogConfirmEmptyTrash
	dialogPickList
	dialogSubtaskTitle
	dialogSubtaskDue
)

// dialogBindings holds huh field values on the heap, like the forms do.
type dialogBindings struct {
	confirm bool
	listID  int64
	text    string
}

// dialog is a one-question huh form layered over the task list.
type dialog struct {
	kind      dialogKind
	form      *huh.Form
	fb        *dialogBindings
	taskID    int64
	subtaskID string
}

func newConfirmDialog(kind dialogKind, taskID int64, title, description string, width int) dialog {
	d := dialog{kind: kind, fb: &dialogBindings{}, taskID: taskID}
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&d.fb.confirm),
		),
	).WithWidth(width)
	return d
}

func newPurgeDialog(t model.Task, width int) dialog {
	return newConfirmDialog(dialogConfirmPurge, t.ID,
		fmt.Sprintf("Delete %q forever?", t.Title),
		"This cannot be undone.", width)
}

func newEmptyTrashDialog(count, width int) dialog {
	return newConfirmDialog(dialogConfirmEmptyTrash, 0,
		fmt.Sprintf("Empty trash (%d tasks)?", count),
		"Trashed tasks are deleted forever.", width)
}

func newListPickerDialog(t model.Task, lists []model.TaskList, width int) dialog {
	d := dialog{kind: dialogPickList, fb: &dialogBindings{listID: t.EffectiveListID()}, taskID: t.ID}
	opts := make([]huh.Option[int64], 0, len(lists))
	for _, l := range lists {
		opts = append(opts, huh.NewOption(l.Name, l.ID))
	}
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().
				Title(fmt.Sprintf("Move %q to", t.Title)).
				Options(opts...).
				Value(&d.fb.listID),
		),
	).WithWidth(width)
	return d
}

func newSubtaskTitleDialog(taskID int64, width int) dialog {
	d := dialog{kind: dialogSubtaskTitle, fb: &dialogBindings{}, taskID: taskID}
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New subtask").
				Placeholder("What's the next step?").
				Value(&d.fb.text).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
		),
	).WithWidth(width)
	return d
}

func newSubtaskDueDialog(taskID int64, subtaskID string, loc *time.Location, now func() time.Time, width int) dialog {
	d := dialog{kind: dialogSubtaskDue, fb: &dialogBindings{}, taskID: taskID, subtaskID: subtaskID}
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Subtask due date").
				Placeholder("YYYY-MM-DD, today or tomorrow; empty clears it").
				Value(&d.fb.text).
				Validate(func(s string) error {
					_, err := model.ParseDate(s, now(), loc)
					return err
				}),
		),
	).WithWidth(width)
	return d
}

// openDialog shows d over the current view.
func (m *Model) openDialog(d dialog) tea.Cmd {
	m.dialog = &d
	if m.currentView != ViewDialog {
		m.previousView = m.currentView
	}
	m.currentView = ViewDialog
	return d.form.Init()
}

func (m *Model) closeDialog() {
	m.dialog = nil
	m.currentView = m.previousView
}

func (m Model) updateDialog(msg tea.Msg) (Model, tea.Cmd) {
	if m.dialog == nil {
		m.currentView = ViewList
		return m, nil
	}
	mdl, cmd := m.dialog.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.dialog.form = f
	}
	switch m.dialog.form.State {
	case huh.StateCompleted:
		d := *m.dialog
		m.closeDialog()
		return m, m.finishDialog(d)
	case huh.StateAborted:
		m.closeDialog()
		return m, nil
	}
	return m, cmd
}

// finishDialog turns a completed dialog into its mutation.
func (m *Model) finishDialog(d dialog) tea.Cmd {
	switch d.kind {
	case dialogConfirmPurge:
		if d.fb.confirm {
			return m.purgeTask(d.taskID)
		}
	case dialogConfirmEmptyTrash:
		if d.fb.confirm {
			return m.emptyTrash()
		}
	case dialogPickList:
		return m.drop(d.taskID, dnd.Target{Kind: dnd.TargetList, ID: d.fb.listID})
	case dialogSubtaskTitle:
		if title := strings.TrimSpace(d.fb.text); title != "" {
			return m.addSubtask(d.taskID, title)
		}
	case dialogSubtaskDue:
		due, err := model.ParseDate(d.fb.text, m.now(), m.loc)
		if err != nil {
			return nil
		}
		return m.setSubtaskDue(d.taskID, d.subtaskID, due)
	}
	return nil
}

func (m Model) dialogWidth() int {
	return min(max(m.layout.ContentWidth()-8, 30), 70)
}
