package settings

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
)

// CloseMsg signals the settings view should close and return to the main app.
type CloseMsg struct{}

// SavedMsg carries the configuration after it was written to disk.
type SavedMsg struct {
	Config model.AppConfig
}

// savedInternalMsg is sent after the config file is written.
type savedInternalMsg struct {
	cfg model.AppConfig
	err error
}

type mode int

const (
	modeView mode = iota
	modeForm
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	timezone      string
	theme         string
	logFile       string
	showCompleted bool
}

// Model is the Bubble Tea model for viewing and editing the config file.
type Model struct {
	mode      mode
	path      string
	cfg       model.AppConfig
	form      *huh.Form
	fb        *formBindings
	keys      *keys.KeyMap
	statusMsg string
	width     int
	height    int
}

// New creates a settings model for the config file at path.
func New(path string, cfg model.AppConfig, k *keys.KeyMap, width, height int) Model {
	return Model{
		path:   path,
		cfg:    cfg,
		fb:     &formBindings{},
		keys:   k,
		width:  width,
		height: height,
	}
}

// Open resets the view to the summary screen.
func (m *Model) Open() {
	m.mode = modeView
	m.statusMsg = ""
}

// Config returns the settings currently in effect.
func (m Model) Config() model.AppConfig {
	return m.cfg
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case savedInternalMsg:
		m.mode = modeView
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error saving settings: %v", msg.err)
			return m, nil
		}
		m.cfg = msg.cfg
		m.statusMsg = "Saved to " + m.path
		cfg := msg.cfg
		return m, func() tea.Msg { return SavedMsg{Config: cfg} }

	case tea.KeyMsg:
		if m.mode == modeView {
			return m.handleViewKey(msg)
		}
		if key.Matches(msg, m.keys.Back) {
			m.mode = modeView
			return m, nil
		}
	}

	if m.mode == modeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleViewKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back, m.keys.Quit):
		return m, func() tea.Msg { return CloseMsg{} }
	case key.Matches(msg, m.keys.Edit, m.keys.Open):
		*m.fb = formBindings{
			timezone:      m.cfg.Timezone,
			theme:         m.cfg.Display.Theme,
			logFile:       m.cfg.LogFile,
			showCompleted: m.cfg.Display.ShowCompleted,
		}
		m.form = m.buildForm()
		m.mode = modeForm
		m.statusMsg = ""
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Time zone").
				Description("IANA name used to decide which day a due date falls on; empty uses the system zone").
				Placeholder("Europe/Berlin").
				Value(&m.fb.timezone).
				Validate(validateTimezone),
			huh.NewSelect[string]().
				Title("Theme").
				Description("Takes effect on the next start").
				Options(
					huh.NewOption("Default colors", "default"),
					huh.NewOption("Monochrome", "mono"),
				).
				Value(&m.fb.theme),
			huh.NewConfirm().
				Title("Show completed tasks").
				Affirmative("Show").
				Negative("Hide").
				Value(&m.fb.showCompleted),
			huh.NewInput().
				Title("Log file").
				Description("Empty discards log output").
				Placeholder("~/.local/state/taskflow.log").
				Value(&m.fb.logFile),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func validateTimezone(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.LoadLocation(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("unknown time zone %q", s)
	}
	return nil
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
		return m, m.save()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeView
		return m, nil
	}
	return m, cmd
}

func (m Model) save() tea.Cmd {
	cfg := m.cfg
	cfg.Timezone = strings.TrimSpace(m.fb.timezone)
	cfg.LogFile = strings.TrimSpace(m.fb.logFile)
	cfg.Display.Theme = m.fb.theme
	cfg.Display.ShowCompleted = m.fb.showCompleted
	path := m.path
	return func() tea.Msg {
		if err := model.SaveConfig(path, &cfg); err != nil {
			return savedInternalMsg{err: err}
		}
		return savedInternalMsg{cfg: cfg}
	}
}

// View renders the settings screen.
func (m Model) View() string {
	if m.mode == modeForm && m.form != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
	}

	var b strings.Builder
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n")
	b.WriteString(theme.MutedStyle.Render(m.path))
	b.WriteString("\n\n")

	row := func(label, value string) {
		if value == "" {
			value = theme.DimmedStyle.Render("(not set)")
		}
		fmt.Fprintf(&b, "  %-16s %s\n", label, value)
	}
	row("Database", m.cfg.DBPath)
	row("Time zone", m.cfg.Timezone)
	row("Theme", m.cfg.Display.Theme)
	row("Show completed", fmt.Sprintf("%t", m.cfg.Display.ShowCompleted))
	row("Log file", m.cfg.LogFile)

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render("e edit | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
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
