package listmgr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
)

// Store is the subset of the task store the list manager needs.
type Store interface {
	CreateList(ctx context.Context, l model.TaskList) (*model.TaskList, error)
	UpdateList(ctx context.Context, id int64, patch model.ListPatch) error
	DeleteList(ctx context.Context, id int64) error
	GetLists(ctx context.Context) ([]model.TaskList, error)
}

// Writer runs list mutations in the order they were issued. *live.Queue
// satisfies it.
type Writer interface {
	Push(job func() tea.Msg)
}

// CloseMsg signals the parent to close the list manager.
type CloseMsg struct{}

// ChangedMsg reports a completed list mutation with a status line.
type ChangedMsg struct {
	Status string
}

type mode int

const (
	modeList mode = iota
	modeForm
	modeConfirmDelete
)

type formBindings struct {
	name    string
	color   string
	icon    string
	confirm bool
}

type listsLoadedMsg struct {
	lists []model.TaskList
	err   error
}

type listSavedMsg struct{ err error }
type listDeletedMsg struct {
	name string
	err  error
}

var errInboxProtected = errors.New("the Inbox cannot be deleted")

// Model is the Bubble Tea model for list management.
type Model struct {
	mode        mode
	store       Store
	writes      Writer
	keys        *keys.KeyMap
	lists       []model.TaskList
	selectedIdx int
	editingID   int64
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a new list manager model.
func New(s Store, w Writer, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		store:  s,
		writes: w,
		keys:   k,
		fb:     &formBindings{},
		width: width, height: height,
	}
}

// Init loads lists from the store.
func (m Model) Init() tea.Cmd {
	return m.loadLists()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case listsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.lists = msg.lists
		if m.selectedIdx >= len(m.lists) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.lists) - 1
		}
		return m, nil

	case listSavedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = "List saved"
		return m, tea.Batch(m.loadLists(), changed(m.statusMsg))

	case listDeletedMsg:
		m.mode = modeList
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Deleted %q, its tasks moved to Inbox", msg.name)
		return m, tea.Batch(m.loadLists(), changed(m.statusMsg))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func changed(status string) tea.Cmd {
	return func() tea.Msg { return ChangedMsg{Status: status} }
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.lists) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.lists)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.lists) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.lists) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		m.editingID = 0
		*m.fb = formBindings{color: "#6BCB77"}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Edit):
		if len(m.lists) == 0 {
			return m, nil
		}
		l := m.lists[m.selectedIdx]
		m.editingID = l.ID
		*m.fb = formBindings{name: l.Name, color: l.Color, icon: l.Icon}
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case key.Matches(msg, m.keys.Delete):
		if len(m.lists) == 0 {
			return m, nil
		}
		if m.lists[m.selectedIdx].ID == model.DefaultListID {
			m.statusMsg = errInboxProtected.Error()
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("List name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Color").
				Placeholder("#6BCB77").
				Value(&m.fb.color),
			huh.NewInput().
				Title("Icon").
				Placeholder("optional").
				CharLimit(4).
				Value(&m.fb.icon),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.lists) {
		name = m.lists[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete list %q?", name)).
				Description("Its tasks move to Inbox.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		m.mode = modeList
		m.saveList()
		return m, nil
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		m.mode = modeList
		if m.fb.confirm && m.selectedIdx < len(m.lists) {
			m.deleteList(m.lists[m.selectedIdx])
		}
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the list manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Lists"))
	b.WriteString("\n\n")

	for i, l := range m.lists {
		icon := l.Icon
		if icon == "" {
			icon = "◆"
		}
		label := fmt.Sprintf("%s  %s", theme.ListStyle(l).Render(icon), l.Name)
		if l.IsDefault {
			label += theme.MutedStyle.Render("  (default)")
		}

		if i == m.selectedIdx {
			b.WriteString(theme.SelectedItemStyle.Render(label))
		} else {
			b.WriteString(theme.ListItemStyle.Render(label))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n new | e edit | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func (m Model) loadLists() tea.Cmd {
	s := m.store
	return func() tea.Msg {
		lists, err := s.GetLists(context.Background())
		return listsLoadedMsg{lists: lists, err: err}
	}
}

// saveList queues the create or rename. The result comes back as a
// listSavedMsg.
func (m Model) saveList() {
	s := m.store
	fb := *m.fb
	editID := m.editingID
	m.writes.Push(func() tea.Msg {
		name := strings.TrimSpace(fb.name)
		if editID == 0 {
			_, err := s.CreateList(context.Background(), model.TaskList{
				Name:  name,
				Color: fb.color,
				Icon:  fb.icon,
			})
			return listSavedMsg{err: err}
		}
		err := s.UpdateList(context.Background(), editID, model.ListPatch{
			Name:  &name,
			Color: &fb.color,
			Icon:  &fb.icon,
		})
		return listSavedMsg{err: err}
	})
}

func (m Model) deleteList(l model.TaskList) {
	s := m.store
	m.writes.Push(func() tea.Msg {
		err := s.DeleteList(context.Background(), l.ID)
		return listDeletedMsg{name: l.Name, err: err}
	})
}
