package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/view"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string { return i.Task.Description }

// sectionItem is the non-selectable "Completed" divider.
type sectionItem struct {
	label string
}

func (s sectionItem) FilterValue() string { return "" }

// renderContext is shared by reference between the Model and its delegate
// so list names and the clock stay current without rebuilding the delegate.
type renderContext struct {
	lists map[int64]model.TaskList
	at    time.Time
	loc   *time.Location

	// showList is off inside a list view, where the list badge is redundant.
	showList bool
}

// ItemDelegate implements list.ItemDelegate for rendering task rows.
type ItemDelegate struct {
	ctx *renderContext
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	switch it := item.(type) {
	case sectionItem:
		fmt.Fprint(w, theme.SectionStyle.UnsetMarginTop().Render(it.label))
	case TaskItem:
		d.renderTask(w, it.Task, index == m.Index())
	}
}

func (d ItemDelegate) renderTask(w io.Writer, t model.Task, isSelected bool) {
	prefix := "○"
	if t.IsCompleted {
		prefix = "✓"
	}

	pri := theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority))

	var extras []string
	if d.ctx.showList {
		if l, ok := d.ctx.lists[t.EffectiveListID()]; ok && !t.InInbox() {
			extras = append(extras, theme.ListStyle(l).Render("◆ "+l.Name))
		}
	}
	if len(t.Tags) > 0 {
		display := t.Tags
		if len(display) > 2 {
			display = append(display[:2:2], "…")
		}
		extras = append(extras, theme.TagStyle.Render("#"+strings.Join(display, " #")))
	}
	if done, total, _ := t.SubtaskProgress(); total > 0 {
		extras = append(extras, theme.MutedStyle.Render(fmt.Sprintf("%d/%d", done, total)))
	}
	if t.DueDate != nil {
		extras = append(extras, d.renderDue(t))
	}

	line := fmt.Sprintf("%s %s %s", prefix, pri, t.Title)
	if len(extras) > 0 {
		line += "  " + strings.Join(extras, " ")
	}

	if t.IsCompleted {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func (d ItemDelegate) renderDue(t model.Task) string {
	due := *t.DueDate
	label := DueLabel(due, d.ctx.at, d.ctx.loc)
	overdue := view.Predicate(model.OverdueView, d.ctx.at, d.ctx.loc)
	if overdue(t) {
		return theme.OverdueStyle.Render(label)
	}
	return theme.DueDateStyle.Render(label)
}

// DueLabel formats a due date relative to at: "today", "tomorrow",
// "yesterday", or "Jan 02".
func DueLabel(due, at time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	switch {
	case view.IsToday(due, at, loc):
		return "today"
	case view.IsToday(due, at.AddDate(0, 0, 1), loc):
		return "tomorrow"
	case view.IsToday(due, at.AddDate(0, 0, -1), loc):
		return "yesterday"
	}
	return due.In(loc).Format("Jan 02")
}

// priorityLabel returns a short label for the given priority.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "!!!"
	case model.PriorityMedium:
		return "!! "
	case model.PriorityLow:
		return "!  "
	default:
		return "   "
	}
}
