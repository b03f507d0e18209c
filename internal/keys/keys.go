package keys

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down       key.Binding
	Up         key.Binding
	FocusPanel key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Task actions
	New         key.Binding
	Open        key.Binding
	Edit        key.Binding
	Toggle      key.Binding
	Delete      key.Binding
	Restore     key.Binding
	AddSubtask  key.Binding
	ToggleShown key.Binding

	// Drops: the keyboard stand-in for dragging the selected task
	MoveDown  key.Binding
	MoveUp    key.Binding
	DropInbox key.Binding
	DropToday key.Binding
	DropList  key.Binding

	// Lists
	ManageLists key.Binding
	EmptyTrash  key.Binding

	Settings key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		FocusPanel: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch panel"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open task"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit task"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x/space", "toggle done"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "trash / delete forever"),
		),
		Restore: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "restore from trash"),
		),
		AddSubtask: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "add subtask"),
		),
		ToggleShown: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "show/hide completed"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move task down"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move task up"),
		),
		DropInbox: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "move to inbox"),
		),
		DropToday: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "due today"),
		),
		DropList: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move to list"),
		),
		ManageLists: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "manage lists"),
		),
		EmptyTrash: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "empty trash"),
		),
		Settings: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "settings"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.New, k.Toggle,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.FocusPanel, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.ToggleShown},
		{k.New, k.Open, k.Edit, k.Toggle, k.AddSubtask, k.Delete, k.Restore},
		{k.MoveUp, k.MoveDown, k.DropInbox, k.DropToday, k.DropList},
		{k.ManageLists, k.EmptyTrash, k.Settings},
	}
}

// DropHelp describes the keyboard drops in a sentence for the help overlay.
func (k *KeyMap) DropHelp() string {
	return fmt.Sprintf(
		"Drops: %s/%s move the task onto its neighbour, %s sends it to the Inbox, "+
			"%s makes it due today, %s picks a list.",
		k.MoveDown.Help().Key, k.MoveUp.Help().Key, k.DropInbox.Help().Key,
		k.DropToday.Help().Key, k.DropList.Help().Key)
}

// Hint renders enabled bindings as a one-line footer such as
// "n new task | ? toggle help".
func Hint(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if !b.Enabled() {
			continue
		}
		parts = append(parts, b.Help().Key+" "+b.Help().Desc)
	}
	return strings.Join(parts, " | ")
}
