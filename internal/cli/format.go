package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// resolveList accepts a list id or a case-insensitive list name.
func resolveList(ctx context.Context, s store.Store, arg string) (int64, error) {
	if id, err := parseID(arg); err == nil {
		return id, nil
	}
	lists, err := s.GetLists(ctx)
	if err != nil {
		return 0, err
	}
	for _, l := range lists {
		if strings.EqualFold(l.Name, arg) {
			return l.ID, nil
		}
	}
	return 0, fmt.Errorf("no list named %q", arg)
}

func listNames(ctx context.Context, s store.Store) (map[int64]string, error) {
	lists, err := s.GetLists(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(lists))
	for _, l := range lists {
		names[l.ID] = l.Name
	}
	return names, nil
}

// printTasks renders tasks as a table.
func printTasks(w io.Writer, tasks []model.Task, lists map[int64]string, loc *time.Location) {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		check := " "
		if t.IsCompleted {
			check = "x"
		}
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.In(loc).Format(model.DateLayout)
		}
		subtasks := ""
		if done, total, _ := t.SubtaskProgress(); total > 0 {
			subtasks = fmt.Sprintf("%d/%d", done, total)
		}
		labels := ""
		if len(t.Tags) > 0 {
			labels = "#" + strings.Join(t.Tags, " #")
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			check,
			t.Title,
			lists[t.EffectiveListID()],
			due,
			string(t.Priority),
			labels,
			subtasks,
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "", "TITLE", "LIST", "DUE", "PRIORITY", "LABELS", "SUBTASKS").
		Rows(rows...)
	fmt.Fprintln(w, tbl.Render())
}

// printTask writes one task with its subtasks.
func printTask(w io.Writer, t model.Task, listName string, loc *time.Location) {
	state := "open"
	if t.IsCompleted {
		state = "done"
	}
	if t.IsDeleted {
		state += ", in trash"
	}
	fmt.Fprintf(w, "#%d %s (%s)\n", t.ID, t.Title, state)
	fmt.Fprintf(w, "  list:     %s\n", listName)
	fmt.Fprintf(w, "  priority: %s\n", t.Priority)
	fmt.Fprintf(w, "  order:    %d\n", t.Order)
	if t.DueDate != nil {
		fmt.Fprintf(w, "  due:      %s\n", t.DueDate.In(loc).Format(model.DateLayout))
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(w, "  labels:   #%s\n", strings.Join(t.Tags, " #"))
	}
	if t.Description != "" {
		fmt.Fprintf(w, "\n  %s\n", strings.ReplaceAll(t.Description, "\n", "\n  "))
	}
	if len(t.Subtasks) > 0 {
		done, total, percent := t.SubtaskProgress()
		fmt.Fprintf(w, "\n  subtasks %d/%d (%d%%)\n", done, total, percent)
		for _, st := range t.Subtasks {
			check := "[ ]"
			if st.IsCompleted {
				check = "[x]"
			}
			line := fmt.Sprintf("  %s %s  %s", check, st.ID, st.Title)
			if st.DueDate != nil {
				line += "  due " + st.DueDate.In(loc).Format(model.DateLayout)
			}
			fmt.Fprintln(w, line)
		}
	}
}
