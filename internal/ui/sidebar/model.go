package sidebar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
)

// ViewSelectedMsg is sent when the cursor lands on a different view.
type ViewSelectedMsg struct {
	View  model.View
	Title string
}

// Entry is one selectable row.
type Entry struct {
	View    model.View
	Label   string
	Icon    string
	Section string
	List    *model.TaskList
}

// Model is the navigation column: smart views, the user's lists, labels
// and the trash, each with its count of open tasks.
type Model struct {
	keys    *keys.KeyMap
	entries []Entry
	counts  map[string]int
	cursor  int
	focused bool
	width   int
	height  int
}

// New creates a sidebar holding only the smart views until SetLists is
// called.
func New(k *keys.KeyMap, width, height int) Model {
	m := Model{keys: k, width: width, height: height, counts: map[string]int{}}
	m.rebuild(nil, nil)
	return m
}

// SmartViews are listed first, in this order.
var SmartViews = []Entry{
	{View: model.InboxView, Label: "Inbox", Icon: "▣"},
	{View: model.TodayView, Label: "Today", Icon: "☀"},
	{View: model.UpcomingView, Label: "Upcoming", Icon: "→"},
	{View: model.OverdueView, Label: "Overdue", Icon: "!"},
}

// SetLists rebuilds the rows for the given lists and labels, keeping the
// cursor on the same view when it still exists.
func (m *Model) SetLists(lists []model.TaskList, tags []model.Tag) {
	current := m.Current().View
	m.rebuild(lists, tags)
	m.cursor = 0
	for i, e := range m.entries {
		if e.View == current {
			m.cursor = i
			break
		}
	}
}

func (m *Model) rebuild(lists []model.TaskList, tags []model.Tag) {
	entries := append([]Entry(nil), SmartViews...)
	for _, l := range lists {
		if l.ID == model.DefaultListID {
			continue
		}
		l := l
		entries = append(entries, Entry{
			View:    model.ListView(l.ID),
			Label:   l.Name,
			Icon:    "◆",
			Section: "Lists",
			List:    &l,
		})
	}
	for _, t := range tags {
		entries = append(entries, Entry{
			View:    model.LabelView(t.Name),
			Label:   t.Name,
			Icon:    "#",
			Section: "Labels",
		})
	}
	entries = append(entries, Entry{View: model.TrashView, Label: "Trash", Icon: "✗", Section: " "})
	m.entries = entries
}

// Views returns every view shown, for counting.
func (m Model) Views() []model.View {
	out := make([]model.View, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.View
	}
	return out
}

// SetCounts sets the per-view badge numbers, keyed by View.String().
func (m *Model) SetCounts(counts map[string]int) {
	m.counts = counts
}

// Current returns the selected entry.
func (m Model) Current() Entry {
	if m.cursor < len(m.entries) {
		return m.entries[m.cursor]
	}
	return SmartViews[0]
}

// Title returns a display title for v, falling back to v.String().
func (m Model) Title(v model.View) string {
	if v.Kind == model.ViewSearch {
		return fmt.Sprintf("Search %q", v.Query)
	}
	for _, e := range m.entries {
		if e.View == v {
			return e.Label
		}
	}
	return v.String()
}

// SelectView moves the cursor to v if it is listed.
func (m *Model) SelectView(v model.View) {
	for i, e := range m.entries {
		if e.View == v {
			m.cursor = i
			return
		}
	}
}

// Focus and Blur toggle keyboard focus.
func (m *Model) Focus() { m.focused = true }
func (m *Model) Blur()  { m.focused = false }

// Focused reports whether the sidebar has keyboard focus.
func (m Model) Focused() bool { return m.focused }

// Update moves the cursor while focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused || len(m.entries) == 0 {
		return m, nil
	}

	prev := m.cursor
	switch {
	case key.Matches(km, m.keys.Down):
		m.cursor = (m.cursor + 1) % len(m.entries)
	case key.Matches(km, m.keys.Up):
		m.cursor--
		if m.cursor < 0 {
			m.cursor = len(m.entries) - 1
		}
	default:
		return m, nil
	}
	if m.cursor == prev {
		return m, nil
	}
	e := m.Current()
	return m, func() tea.Msg { return ViewSelectedMsg{View: e.View, Title: e.Label} }
}

// View renders the sidebar.
func (m Model) View() string {
	var b strings.Builder
	section := ""
	for i, e := range m.entries {
		if e.Section != section {
			section = e.Section
			b.WriteString(theme.SectionStyle.Render(strings.TrimSpace(section)))
			b.WriteString("\n")
		}

		icon := e.Icon
		if e.List != nil {
			icon = theme.ListStyle(*e.List).Render(icon)
		}
		label := fmt.Sprintf("%s %s", icon, e.Label)
		if n := m.counts[e.View.String()]; n > 0 {
			gap := max(m.width-6-lipgloss.Width(label)-len(fmt.Sprint(n)), 1)
			label += strings.Repeat(" ", gap) + theme.MutedStyle.Render(fmt.Sprint(n))
		}

		switch {
		case i == m.cursor && m.focused:
			b.WriteString(theme.SelectedItemStyle.Render(label))
		case i == m.cursor:
			b.WriteString(theme.ListItemStyle.Bold(true).Render(label))
		default:
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
