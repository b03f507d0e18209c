package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui/tasklist"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// SubtaskAction names what the user asked to do with a subtask.
type SubtaskAction string

const (
	SubtaskAdd    SubtaskAction = "add"
	SubtaskToggle SubtaskAction = "toggle"
	SubtaskDelete SubtaskAction = "delete"
	SubtaskDue    SubtaskAction = "due"
)

// SubtaskActionMsg asks the parent to run a subtask operation. SubtaskID is
// empty for SubtaskAdd.
type SubtaskActionMsg struct {
	Action    SubtaskAction
	TaskID    int64
	SubtaskID string
}

// EditTaskMsg asks the parent to open the task form for the shown task.
type EditTaskMsg struct {
	Task model.Task
}

var dueKey = key.NewBinding(
	key.WithKeys("D"),
	key.WithHelp("D", "subtask due date"),
)

// Model is the task detail view: fields, description and the subtask
// checklist with a cursor.
type Model struct {
	task     *model.Task
	listName string
	cursor   int
	viewport viewport.Model
	keys     *keys.KeyMap
	at       time.Time
	loc      *time.Location
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		loc:      time.Local,
		width:    width,
		height:   height,
	}
}

// TaskID returns the id of the shown task, or 0.
func (m Model) TaskID() int64 {
	if m.task == nil {
		return 0
	}
	return m.task.ID
}

// SetTask updates the task being displayed and re-renders the content.
// The cursor stays in range when subtasks come and go.
func (m *Model) SetTask(t *model.Task, listName string, at time.Time, loc *time.Location) {
	if m.task == nil || t == nil || m.task.ID != t.ID {
		m.cursor = 0
		m.viewport.GotoTop()
	}
	m.task = t
	m.listName = listName
	m.at = at
	m.loc = loc
	if t != nil && m.cursor >= len(t.Subtasks) {
		m.cursor = max(len(t.Subtasks)-1, 0)
	}
	m.viewport.SetContent(m.renderContent())
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.task != nil {
		id := m.task.ID
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.task.Subtasks)-1 {
				m.cursor++
				m.viewport.SetContent(m.renderContent())
			}
			return m, nil

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.viewport.SetContent(m.renderContent())
			}
			return m, nil

		case key.Matches(msg, m.keys.AddSubtask):
			return m, subtaskCmd(SubtaskAdd, id, "")

		case key.Matches(msg, m.keys.Edit):
			t := *m.task
			return m, func() tea.Msg { return EditTaskMsg{Task: t} }
		}

		if sub, ok := m.selectedSubtask(); ok {
			switch {
			case key.Matches(msg, m.keys.Toggle):
				return m, subtaskCmd(SubtaskToggle, id, sub.ID)
			case key.Matches(msg, m.keys.Delete):
				return m, subtaskCmd(SubtaskDelete, id, sub.ID)
			case key.Matches(msg, dueKey):
				return m, subtaskCmd(SubtaskDue, id, sub.ID)
			}
		}
	}

	// Delegate to viewport for scrolling (pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func subtaskCmd(action SubtaskAction, taskID int64, subtaskID string) tea.Cmd {
	return func() tea.Msg {
		return SubtaskActionMsg{Action: action, TaskID: taskID, SubtaskID: subtaskID}
	}
}

// SelectedSubtask returns the subtask under the cursor.
func (m Model) SelectedSubtask() (model.Subtask, bool) {
	return m.selectedSubtask()
}

func (m Model) selectedSubtask() (model.Subtask, bool) {
	if m.task == nil || m.cursor >= len(m.task.Subtasks) {
		return model.Subtask{}, false
	}
	return m.task.Subtasks[m.cursor], true
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("Task no longer exists")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := task.Title
	if task.IsCompleted {
		title = "✓ " + title
	}
	if task.IsDeleted {
		title += "  (in trash)"
	}
	sections = append(sections, titleStyle.Render(title))

	priBadge := theme.PriorityStyle(task.Priority).Render(string(task.Priority))
	sections = append(sections, priBadge, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(10)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		sections = append(sections, metaStyle.Render(label)+valStyle.Render(value))
	}

	row("List:", m.listName)
	if task.DueDate != nil {
		row("Due:", tasklist.DueLabel(*task.DueDate, m.at, m.loc))
	}
	if len(task.Tags) > 0 {
		row("Labels:", "#"+strings.Join(task.Tags, " #"))
	}
	row("Created:", task.CreatedAt.In(m.loc).Format("2006-01-02 15:04"))
	row("Updated:", task.UpdatedAt.In(m.loc).Format("2006-01-02 15:04"))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	sections = append(sections, "", separator, "", headerStyle.Render("Description"))
	if task.Description == "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description"))
	} else {
		sections = append(sections, task.Description)
	}

	done, total, percent := task.SubtaskProgress()
	sections = append(sections, "", separator, "")
	if total == 0 {
		sections = append(sections,
			headerStyle.Render("Subtasks"),
			theme.HelpStyle.Render("None yet. Press s to add one."))
	} else {
		sections = append(sections,
			headerStyle.Render(fmt.Sprintf("Subtasks %d/%d (%d%%)", done, total, percent)))
		for i, st := range task.Subtasks {
			check := "☐"
			if st.IsCompleted {
				check = "☑"
			}
			line := check + " " + st.Title
			if st.DueDate != nil {
				line += "  " + theme.DueDateStyle.Render(tasklist.DueLabel(*st.DueDate, m.at, m.loc))
			}
			if st.IsCompleted {
				line = theme.DimmedStyle.Render(line)
			}
			if i == m.cursor {
				line = theme.SelectedItemStyle.Render(line)
			} else {
				line = theme.ListItemStyle.Render(line)
			}
			sections = append(sections, line)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
