package app

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
)

// paletteCommands are offered as completions in the command palette.
var paletteCommands = []string{
	"new",
	"inbox",
	"today",
	"upcoming",
	"overdue",
	"trash",
	"list ",
	"label ",
	"search ",
	"lists",
	"settings",
	"toggle completed",
	"empty trash",
	"compact",
	"quit",
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(input string) tea.Cmd {
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "quit", "q":
		m.shutdown()
		return tea.Quit
	case "new", "add":
		return m.startCreate()
	case "inbox", "today", "upcoming", "overdue", "trash":
		v, _ := model.ParseView(name)
		return m.selectView(v)
	case "list":
		for _, l := range m.catalog.lists {
			if strings.EqualFold(l.Name, arg) {
				return m.selectView(model.ListView(l.ID))
			}
		}
		return m.setError(fmt.Errorf("no list named %q", arg))
	case "label":
		return m.selectView(model.LabelView(strings.TrimPrefix(arg, "#")))
	case "search":
		if arg == "" {
			return nil
		}
		return m.selectView(model.SearchView(arg))
	case "lists":
		return m.openListManager()
	case "settings", "config":
		return m.openSettings()
	case "toggle":
		return m.taskList.ToggleShowCompleted()
	case "empty":
		return m.confirmEmptyTrash()
	case "compact":
		return m.mutate("Order keys renumbered", func(ctx context.Context, s store.Store) error {
			return s.NormalizeOrder(ctx)
		})
	}
	return m.setError(fmt.Errorf("unknown command %q", input))
}
