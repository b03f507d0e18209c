package taskform

import (
	"fmt"
	"slices"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/theme"
)

// SubmitMsg is dispatched when the form is completed. EditID is zero when
// a new task is being created.
type SubmitMsg struct {
	EditID      int64
	Title       string
	Description string
	Priority    model.Priority
	DueDate     *time.Time
	ListID      int64
	Tags        []string
}

// NewTask converts the submission into create input.
func (s SubmitMsg) NewTask() model.NewTask {
	listID := s.ListID
	return model.NewTask{
		Title:       s.Title,
		Description: s.Description,
		Priority:    s.Priority,
		DueDate:     s.DueDate,
		ListID:      &listID,
		Tags:        s.Tags,
	}
}

// Patch converts the submission into an update of every form field.
func (s SubmitMsg) Patch() model.TaskPatch {
	tags := slices.Clone(s.Tags)
	return model.TaskPatch{
		Title:        model.Ptr(s.Title),
		Description:  model.Ptr(s.Description),
		Priority:     model.Ptr(s.Priority),
		DueDate:      s.DueDate,
		ClearDueDate: s.DueDate == nil,
		ListID:       model.Ptr(s.ListID),
		Tags:         &tags,
	}
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    model.Priority
	dueDate     string
	listID      int64
	tags        []string
	newTags     string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	editID int64
	lists  []model.TaskList
	tags   []model.Tag
	loc    *time.Location
	width  int
	height int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{priority: model.PriorityMedium, listID: model.DefaultListID},
		loc:    time.Local,
		width:  width,
		height: height,
	}
}

// SetOptions sets the lists and registered labels offered by the form, and
// the zone due dates are entered in.
func (m *Model) SetOptions(lists []model.TaskList, tags []model.Tag, loc *time.Location) {
	m.lists = lists
	m.tags = tags
	if loc != nil {
		m.loc = loc
	}
}

// StartCreate initializes the form for creating a task in listID.
func (m *Model) StartCreate(listID int64) tea.Cmd {
	m.editID = 0
	*m.fb = formBindings{priority: model.PriorityMedium, listID: listID}
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing task.
func (m *Model) StartEdit(t model.Task) tea.Cmd {
	m.editID = t.ID
	*m.fb = formBindings{
		title:       t.Title,
		description: t.Description,
		priority:    t.Priority,
		listID:      t.EffectiveListID(),
	}
	if t.DueDate != nil {
		m.fb.dueDate = t.DueDate.In(m.loc).Format(model.DateLayout)
	}
	// Labels not in the registry go into the free-text field.
	for _, name := range t.Tags {
		if m.registered(name) {
			m.fb.tags = append(m.fb.tags, name)
		} else {
			m.fb.newTags = strings.TrimSpace(m.fb.newTags + " " + name)
		}
	}
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) registered(name string) bool {
	for _, t := range m.tags {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editID != 0 {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewSelect[model.Priority]().
			Title("Priority").
			Options(
				huh.NewOption("High", model.PriorityHigh),
				huh.NewOption("Medium", model.PriorityMedium),
				huh.NewOption("Low", model.PriorityLow),
			).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD, today or tomorrow (optional)").
			Value(&m.fb.dueDate).
			Validate(m.validateOptionalDate),
		m.listField(),
	}
	if tagField := m.tagField(); tagField != nil {
		fields = append(fields, tagField)
	}
	fields = append(fields,
		huh.NewInput().
			Title("New labels").
			Placeholder("space separated (optional)").
			Value(&m.fb.newTags),
	)

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) listField() huh.Field {
	opts := make([]huh.Option[int64], 0, len(m.lists)+1)
	for _, l := range m.lists {
		opts = append(opts, huh.NewOption(l.Name, l.ID))
	}
	if len(opts) == 0 {
		opts = append(opts, huh.NewOption("Inbox", model.DefaultListID))
	}
	return huh.NewSelect[int64]().
		Title("List").
		Options(opts...).
		Value(&m.fb.listID)
}

func (m *Model) tagField() huh.Field {
	if len(m.tags) == 0 {
		return nil
	}
	opts := make([]huh.Option[string], len(m.tags))
	for i, t := range m.tags {
		opts[i] = huh.NewOption(t.Name, t.Name)
	}
	return huh.NewMultiSelect[string]().
		Title("Labels").
		Options(opts...).
		Value(&m.fb.tags)
}

func (m Model) handleSubmit() tea.Cmd {
	msg := SubmitMsg{
		EditID:      m.editID,
		Title:       strings.TrimSpace(m.fb.title),
		Description: m.fb.description,
		Priority:    m.fb.priority,
		ListID:      m.fb.listID,
		Tags:        append(slices.Clone(m.fb.tags), strings.Fields(m.fb.newTags)...),
	}
	if due, err := model.ParseDate(m.fb.dueDate, time.Now(), m.loc); err == nil {
		msg.DueDate = due
	}
	return func() tea.Msg { return msg }
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func (m Model) validateOptionalDate(s string) error {
	_, err := model.ParseDate(s, time.Now(), m.loc)
	return err
}
