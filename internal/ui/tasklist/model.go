package tasklist

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/view"
)

// SearchMsg is sent when the user submits a search query. An empty query
// means the search was cancelled.
type SearchMsg struct {
	Query string
}

// Model is the task list panel. It renders whatever the root model hands
// it; loading and mutations happen in the root model.
type Model struct {
	list          list.Model
	keys          *keys.KeyMap
	rc            *renderContext
	result        view.Result
	showCompleted bool
	title         string
	searchMode    bool
	searchInput   textinput.Model
	width         int
	height        int
}

// New creates a new task list model.
func New(k *keys.KeyMap, width, height int) Model {
	rc := &renderContext{
		lists:    make(map[int64]model.TaskList),
		at:       time.Now(),
		loc:      time.Local,
		showList: true,
	}
	l := list.New([]list.Item{}, ItemDelegate{ctx: rc}, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:          l,
		keys:          k,
		rc:            rc,
		showCompleted: true,
		searchInput:   si,
		width:         width,
		height:        height,
	}
}

// SetTasks replaces the rendered tasks, keeping the cursor on the same task
// where it still exists.
func (m *Model) SetTasks(title string, res view.Result, showList bool, at time.Time, loc *time.Location) tea.Cmd {
	selected, hadSelection := m.SelectedTask()

	m.title = title
	m.result = res
	m.rc.at = at
	m.rc.loc = loc
	m.rc.showList = showList
	m.list.Title = fmt.Sprintf("%s (%d)", title, len(res.Incomplete))

	cmd := m.list.SetItems(m.items())
	if hadSelection {
		m.Select(selected.ID)
	}
	return cmd
}

// SetLists updates the list names shown as badges.
func (m *Model) SetLists(lists []model.TaskList) {
	m.rc.lists = make(map[int64]model.TaskList, len(lists))
	for _, l := range lists {
		m.rc.lists[l.ID] = l
	}
}

func (m Model) items() []list.Item {
	items := make([]list.Item, 0, m.result.Len()+1)
	for _, t := range m.result.Incomplete {
		items = append(items, TaskItem{Task: t})
	}
	if m.showCompleted && len(m.result.Completed) > 0 {
		items = append(items, sectionItem{label: fmt.Sprintf("Completed (%d)", len(m.result.Completed))})
		for _, t := range m.result.Completed {
			items = append(items, TaskItem{Task: t})
		}
	}
	return items
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	it, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return it.Task, true
}

// Select moves the cursor to the task with id, if shown.
func (m *Model) Select(id int64) {
	for i, it := range m.list.Items() {
		if ti, ok := it.(TaskItem); ok && ti.Task.ID == id {
			m.list.Select(i)
			return
		}
	}
}

// Displayed returns the incomplete tasks in on-screen order. Reordering
// works on this sequence.
func (m Model) Displayed() []model.Task {
	return m.result.Incomplete
}

// Neighbour returns the incomplete task offset rows away from the selected
// one, for keyboard drops.
func (m Model) Neighbour(offset int) (model.Task, bool) {
	sel, ok := m.SelectedTask()
	if !ok || sel.IsCompleted {
		return model.Task{}, false
	}
	for i, t := range m.result.Incomplete {
		if t.ID != sel.ID {
			continue
		}
		j := i + offset
		if j < 0 || j >= len(m.result.Incomplete) {
			return model.Task{}, false
		}
		return m.result.Incomplete[j], true
	}
	return model.Task{}, false
}

// ShowCompleted reports whether completed tasks are listed.
func (m Model) ShowCompleted() bool {
	return m.showCompleted
}

// ToggleShowCompleted shows or hides the completed section.
func (m *Model) ToggleShowCompleted() tea.Cmd {
	m.showCompleted = !m.showCompleted
	return m.list.SetItems(m.items())
}

// SetShowCompleted sets whether the completed section is listed.
func (m *Model) SetShowCompleted(show bool) {
	m.showCompleted = show
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		if key.Matches(msg, m.keys.Search) {
			m.searchMode = true
			m.searchInput.Reset()
			return m, m.searchInput.Focus()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.skipSection(msg)
	return m, cmd
}

// skipSection keeps the cursor off the divider row.
func (m *Model) skipSection(msg tea.Msg) {
	if _, ok := m.list.SelectedItem().(sectionItem); !ok {
		return
	}
	if km, ok := msg.(tea.KeyMsg); ok && key.Matches(km, m.keys.Up) {
		m.list.CursorUp()
		return
	}
	m.list.CursorDown()
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		query := m.searchInput.Value()
		return m, func() tea.Msg { return SearchMsg{Query: query} }

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		return m, func() tea.Msg { return SearchMsg{} }
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	body := m.list.View()
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	}

	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, body)
	}
	return body
}

// renderEmptyState shows guidance text when no tasks are available.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.result.Len() > 0 {
		return style.Render(fmt.Sprintf("All done in %s.\nPress H to show completed tasks.", m.title))
	}
	return style.Render(fmt.Sprintf("Nothing in %s.\n\nPress n to add a task.", m.title))
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
