package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/dnd"
	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/live"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
	"github.com/nhle/taskflow/internal/ui/command"
	"github.com/nhle/taskflow/internal/ui/detail"
	helpview "github.com/nhle/taskflow/internal/ui/help"
	"github.com/nhle/taskflow/internal/ui/listmgr"
	"github.com/nhle/taskflow/internal/ui/settings"
	"github.com/nhle/taskflow/internal/ui/sidebar"
	"github.com/nhle/taskflow/internal/ui/taskform"
	"github.com/nhle/taskflow/internal/ui/tasklist"
	"github.com/nhle/taskflow/internal/view"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewTaskForm
	ViewListManager
	ViewSettings
	ViewDialog
)

// clockMsg re-evaluates the date-based views so Today rolls over at
// midnight without a store change.
type clockMsg time.Time

const clockInterval = time.Minute

// Options configures the root model.
type Options struct {
	// Location decides which calendar day a due date falls on.
	Location      *time.Location
	ShowCompleted bool
	StartView     model.View
	// Now defaults to time.Now.
	Now func() time.Time

	// ConfigPath and Config back the settings screen.
	ConfigPath string
	Config     model.AppConfig
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the live queries feeding every panel.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        store.Store
	keys         *keys.KeyMap
	loc          *time.Location
	now          func() time.Time
	cancel       context.CancelFunc

	tasksQuery   *live.Query[[]model.Task]
	catalogQuery *live.Query[catalog]
	writes       *live.Queue
	tasks        []model.Task
	catalog      catalog
	counts       map[string]int

	current       model.View
	beforeSearch  model.View
	pendingSelect int64

	sidebar     sidebar.Model
	taskList    tasklist.Model
	detail      detail.Model
	helpView    helpview.Model
	commandView command.Model
	taskForm    taskform.Model
	listManager listmgr.Model
	settings    settings.Model
	dialog      *dialog

	status    string
	statusErr bool
	ready     bool
}

// New creates the root model and starts its live queries. They stop when
// the program quits.
func New(s store.Store, opts Options) Model {
	k := keys.DefaultKeyMap()
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.StartView.Kind == "" {
		opts.StartView = model.InboxView
	}

	ctx, cancel := context.WithCancel(context.Background())
	writes := live.NewQueue(ctx)

	tl := tasklist.New(k, 80, 24)
	tl.SetShowCompleted(opts.ShowCompleted)

	m := Model{
		currentView:  ViewList,
		store:        s,
		keys:         k,
		loc:          opts.Location,
		now:          opts.Now,
		cancel:       cancel,
		tasksQuery:   watchTasks(ctx, s),
		catalogQuery: watchCatalog(ctx, s),
		writes:       writes,
		counts:       map[string]int{},
		current:      opts.StartView,
		beforeSearch: model.InboxView,
		sidebar:      sidebar.New(k, 24, 24),
		taskList:     tl,
		detail:       detail.New(k, 80, 24),
		helpView:     helpview.New(k, paletteNames(), 80, 24),
		commandView:  command.New(paletteCommands, 80, 24),
		taskForm:     taskform.New(80, 24),
		listManager:  listmgr.New(s, writes, k, 80, 24),
		settings:     settings.New(opts.ConfigPath, opts.Config, k, 80, 24),
	}
	m.taskForm.SetOptions(nil, nil, opts.Location)
	return m
}

func paletteNames() []string {
	names := make([]string, len(paletteCommands))
	for i, c := range paletteCommands {
		names[i] = strings.TrimSpace(c)
	}
	return names
}

// Init waits for the first query results and mutation outcomes and starts
// the clock.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tasksQuery.Wait(),
		m.catalogQuery.Wait(),
		m.writes.Wait(),
		tick(),
	)
}

func tick() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg { return clockMsg(t) })
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case live.Result[[]model.Task]:
		if msg.Err != nil {
			m.setError(fmt.Errorf("loading tasks: %w", msg.Err))
		} else {
			m.tasks = msg.Value
		}
		return m, tea.Batch(m.refresh(), m.tasksQuery.Wait())

	case live.Result[catalog]:
		if msg.Err != nil {
			m.setError(fmt.Errorf("loading lists: %w", msg.Err))
			return m, m.catalogQuery.Wait()
		}
		m.applyCatalog(msg.Value)
		return m, tea.Batch(m.refresh(), m.catalogQuery.Wait())

	case clockMsg:
		return m, tea.Batch(m.refresh(), tick())

	case live.Done:
		next, cmd := m.Update(msg.Msg)
		return next, tea.Batch(cmd, m.writes.Wait())

	case mutationDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else if msg.status != "" {
			m.setStatus(msg.status)
		}
		return m, nil

	case taskCreatedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setStatus("Task added")
		m.pendingSelect = msg.id
		m.applyPendingSelect()
		return m, nil

	case sidebar.ViewSelectedMsg:
		return m, m.selectView(msg.View)

	case tasklist.SearchMsg:
		if msg.Query == "" {
			if m.current.Kind == model.ViewSearch {
				return m, m.selectView(m.beforeSearch)
			}
			return m, nil
		}
		if m.current.Kind != model.ViewSearch {
			m.beforeSearch = m.current
		}
		return m, m.selectView(model.SearchView(msg.Query))

	case taskform.SubmitMsg:
		m.currentView = m.previousView
		return m, m.submitTask(msg)

	case taskform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		m.detail.SetTask(nil, "", m.now(), m.loc)
		return m, nil

	case detail.EditTaskMsg:
		return m, m.startEdit(msg.Task)

	case detail.SubtaskActionMsg:
		return m, m.subtaskAction(msg)

	case listmgr.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case listmgr.ChangedMsg:
		m.setStatus(msg.Status)
		return m, nil

	case settings.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case settings.SavedMsg:
		return m, m.applySettings(msg.Config)

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.shutdown()
		return m, tea.Quit
	}
	m.status, m.statusErr = "", false

	// Views with text input get every key except esc.
	switch m.currentView {
	case ViewTaskForm:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		return m.updateActiveView(msg)
	case ViewDialog:
		if key.Matches(msg, m.keys.Back) {
			m.closeDialog()
			return m, nil
		}
		return m.updateActiveView(msg)
	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		return m.updateActiveView(msg)
	case ViewListManager, ViewSettings:
		return m.updateActiveView(msg)
	case ViewHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil
	}
	if m.currentView == ViewList && m.taskList.Searching() {
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus()
	}

	if m.currentView == ViewList {
		return m.handleListKey(msg)
	}
	return m.updateActiveView(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sidebar.Focused() {
		switch {
		case key.Matches(msg, m.keys.FocusPanel, m.keys.Open, m.keys.Back):
			m.sidebar.Blur()
			return m, nil
		case key.Matches(msg, m.keys.Quit):
			m.shutdown()
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, cmd
	}

	inTrash := m.current.Kind == model.ViewTrash
	sel, hasSel := m.taskList.SelectedTask()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.FocusPanel):
		if m.layout.SidebarWidth > 0 {
			m.sidebar.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.current.Kind == model.ViewSearch {
			return m, m.selectView(m.beforeSearch)
		}
		return m, nil

	case key.Matches(msg, m.keys.New):
		return m, m.startCreate()

	case key.Matches(msg, m.keys.ToggleShown):
		return m, m.taskList.ToggleShowCompleted()

	case key.Matches(msg, m.keys.ManageLists):
		return m, m.openListManager()

	case key.Matches(msg, m.keys.Settings):
		return m, m.openSettings()

	case key.Matches(msg, m.keys.EmptyTrash):
		return m, m.confirmEmptyTrash()
	}

	if !hasSel {
		return m.updateActiveView(msg)
	}

	if inTrash {
		switch {
		case key.Matches(msg, m.keys.Restore):
			return m, m.restoreTask(sel)
		case key.Matches(msg, m.keys.Delete):
			return m, m.openDialog(newPurgeDialog(sel, m.dialogWidth()))
		case key.Matches(msg, m.keys.Open):
			return m, m.openDetail(sel)
		}
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Open):
		return m, m.openDetail(sel)
	case key.Matches(msg, m.keys.Edit):
		return m, m.startEdit(sel)
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggleTask(sel)
	case key.Matches(msg, m.keys.Delete):
		return m, m.trashTask(sel)
	case key.Matches(msg, m.keys.AddSubtask):
		return m, m.openDialog(newSubtaskTitleDialog(sel.ID, m.dialogWidth()))
	case key.Matches(msg, m.keys.MoveDown, m.keys.MoveUp):
		offset := 1
		if key.Matches(msg, m.keys.MoveUp) {
			offset = -1
		}
		nb, ok := m.taskList.Neighbour(offset)
		if !ok {
			return m, nil
		}
		return m, m.drop(sel.ID, dnd.Target{Kind: dnd.TargetTask, ID: nb.ID})
	case key.Matches(msg, m.keys.DropInbox):
		return m, m.drop(sel.ID, dnd.Target{Kind: dnd.TargetInbox})
	case key.Matches(msg, m.keys.DropToday):
		return m, m.drop(sel.ID, dnd.Target{Kind: dnd.TargetToday})
	case key.Matches(msg, m.keys.DropList):
		return m, m.openDialog(newListPickerDialog(sel, m.catalog.lists, m.dialogWidth()))
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTaskForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewListManager:
		m.listManager, cmd = m.listManager.Update(msg)
	case ViewSettings:
		m.settings, cmd = m.settings.Update(msg)
	case ViewDialog:
		return m.updateDialog(msg)
	}

	return m, cmd
}

// refresh recomputes the current view, the sidebar counts and the detail
// panel from the latest task snapshot.
func (m *Model) refresh() tea.Cmd {
	at := m.now()
	res := view.Filter(m.tasks, m.current, at, m.loc)
	title := m.sidebar.Title(m.current)
	cmd := m.taskList.SetTasks(title, res, m.current.Kind != model.ViewList, at, m.loc)

	m.counts = view.Counts(m.tasks, m.sidebar.Views(), at, m.loc)
	m.sidebar.SetCounts(m.counts)
	m.applyPendingSelect()

	if id := m.detail.TaskID(); id != 0 {
		t := m.findTask(id)
		name := ""
		if t != nil {
			name = m.catalog.listName(t.EffectiveListID())
		}
		m.detail.SetTask(t, name, at, m.loc)
	}
	return cmd
}

func (m *Model) applyCatalog(c catalog) {
	m.catalog = c
	m.sidebar.SetLists(c.lists, c.tags)
	m.taskList.SetLists(c.lists)
	m.taskForm.SetOptions(c.lists, c.tags, m.loc)

	// A deleted list's view falls back to the Inbox, where its tasks went.
	if m.current.Kind == model.ViewList {
		for _, l := range c.lists {
			if l.ID == m.current.ListID {
				return
			}
		}
		m.current = model.InboxView
		m.sidebar.SelectView(m.current)
	}
}

func (m *Model) applyPendingSelect() {
	if m.pendingSelect == 0 {
		return
	}
	m.taskList.Select(m.pendingSelect)
	if sel, ok := m.taskList.SelectedTask(); ok && sel.ID == m.pendingSelect {
		m.pendingSelect = 0
	}
}

func (m Model) findTask(id int64) *model.Task {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			t := m.tasks[i]
			return &t
		}
	}
	return nil
}

func (m *Model) selectView(v model.View) tea.Cmd {
	m.current = v
	m.currentView = ViewList
	m.pendingSelect = 0
	m.sidebar.SelectView(v)
	return m.refresh()
}

func (m *Model) openDetail(t model.Task) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewDetail
	m.detail.SetTask(&t, m.catalog.listName(t.EffectiveListID()), m.now(), m.loc)
	return nil
}

func (m *Model) startCreate() tea.Cmd {
	listID := model.DefaultListID
	if m.current.Kind == model.ViewList {
		listID = m.current.ListID
	}
	m.previousView = m.currentView
	m.currentView = ViewTaskForm
	return m.taskForm.StartCreate(listID)
}

func (m *Model) startEdit(t model.Task) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewTaskForm
	return m.taskForm.StartEdit(t)
}

func (m *Model) openListManager() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewListManager
	return m.listManager.Init()
}

func (m *Model) openSettings() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewSettings
	m.settings.Open()
	return nil
}

// applySettings makes a saved configuration take effect without a restart.
// The theme and database path are only read at startup.
func (m *Model) applySettings(cfg model.AppConfig) tea.Cmd {
	loc, err := cfg.Location()
	if err != nil {
		return m.setError(err)
	}
	m.loc = loc
	m.taskForm.SetOptions(m.catalog.lists, m.catalog.tags, loc)
	m.taskList.SetShowCompleted(cfg.Display.ShowCompleted)
	m.setStatus("Settings saved")
	return m.refresh()
}

func (m *Model) confirmEmptyTrash() tea.Cmd {
	n := 0
	for _, t := range m.tasks {
		if t.IsDeleted {
			n++
		}
	}
	if n == 0 {
		m.setStatus("Trash is empty")
		return nil
	}
	return m.openDialog(newEmptyTrashDialog(n, m.dialogWidth()))
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(err error) tea.Cmd {
	m.status, m.statusErr = "Error: "+err.Error(), true
	return nil
}

// shutdown finishes queued writes and stops the live queries.
func (m *Model) shutdown() {
	m.writes.Close()
	m.cancel()
}

func (m *Model) resize() {
	h := m.layout.ContentHeight()
	w := m.layout.ContentWidth()
	full := m.layout.FullWidth()
	m.sidebar.SetSize(m.layout.SidebarWidth, h)
	m.taskList.SetSize(w, h)
	m.detail.SetSize(w, h)
	m.helpView.SetSize(full, h)
	m.commandView.SetSize(full, h)
	m.taskForm.SetSize(full, h)
	m.listManager.SetSize(full, h)
	m.settings.SetSize(full, h)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(
		"Taskflow · "+m.sidebar.Title(m.current),
		fmt.Sprintf("%d today · %d overdue",
			m.counts[model.TodayView.String()],
			m.counts[model.OverdueView.String()]),
	)

	statusBar := m.layout.RenderStatusBar(m.statusLine(), m.statusErr)
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.layout.RenderBody(m.sidebar.View(), m.taskList.View())
	case ViewDetail:
		return m.layout.RenderBody(m.sidebar.View(), m.detail.View())
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTaskForm:
		return m.taskForm.View()
	case ViewListManager:
		return m.listManager.View()
	case ViewSettings:
		return m.settings.View()
	case ViewDialog:
		if m.dialog == nil {
			return ""
		}
		return theme.DetailPanelStyle.Render(m.dialog.form.View())
	default:
		return ""
	}
}

// statusLine shows the last outcome, or keyboard hints for the view.
func (m Model) statusLine() string {
	if m.status != "" {
		return m.status
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return "esc back | e edit | s add subtask | x toggle | d delete | D due date"
	case ViewTaskForm, ViewDialog:
		return "enter submit | esc cancel"
	case ViewListManager:
		return "n new | e edit | d delete | esc back"
	case ViewSettings:
		return "e edit | esc back"
	}

	switch {
	case m.sidebar.Focused():
		return "j/k views | tab tasks | : command | ? help | q quit"
	case m.current.Kind == model.ViewTrash:
		return keys.Hint(m.keys.Restore, m.keys.Delete, m.keys.EmptyTrash, m.keys.Help)
	case m.current.Kind == model.ViewSearch:
		return "esc clear search | enter open | x done | / search again | ? help"
	default:
		return keys.Hint(m.keys.New, m.keys.Open, m.keys.Toggle, m.keys.DropList, m.keys.Search, m.keys.Help, m.keys.Quit)
	}
}
