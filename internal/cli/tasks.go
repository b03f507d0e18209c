package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/dnd"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/internal/view"
)

func newAddCmd(e *env) *cobra.Command {
	var (
		list, due, priority, desc string
		tags                      []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			in := model.NewTask{
				Title:       strings.Join(args, " "),
				Description: desc,
				Tags:        tags,
			}
			if in.Priority, err = model.ParsePriority(priority); err != nil {
				return err
			}
			if in.DueDate, err = model.ParseDate(due, e.now(), e.loc); err != nil {
				return err
			}
			if list != "" {
				id, err := resolveList(ctx, s, list)
				if err != nil {
					return err
				}
				in.ListID = &id
			}

			t, err := s.CreateTask(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added #%d %s\n", t.ID, t.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&list, "list", "l", "", "list id or name (default Inbox)")
	cmd.Flags().StringVarP(&due, "due", "d", "", "due date: YYYY-MM-DD, today or tomorrow")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "label (repeatable)")
	return cmd
}

func newEditCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			flags := cmd.Flags()

			var patch model.TaskPatch
			if flags.Changed("title") {
				v, _ := flags.GetString("title")
				patch.Title = &v
			}
			if flags.Changed("desc") {
				v, _ := flags.GetString("desc")
				patch.Description = &v
			}
			if flags.Changed("priority") {
				v, _ := flags.GetString("priority")
				p, err := model.ParsePriority(v)
				if err != nil {
					return err
				}
				patch.Priority = &p
			}
			if flags.Changed("due") {
				v, _ := flags.GetString("due")
				due, err := model.ParseDate(v, e.now(), e.loc)
				if err != nil {
					return err
				}
				patch.DueDate = due
				patch.ClearDueDate = due == nil
			}
			if flags.Changed("list") {
				v, _ := flags.GetString("list")
				listID, err := resolveList(ctx, s, v)
				if err != nil {
					return err
				}
				patch.ListID = &listID
			}
			if flags.Changed("tag") {
				v, _ := flags.GetStringSlice("tag")
				patch.Tags = &v
			}

			if err := s.UpdateTask(ctx, id, patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d\n", id)
			return nil
		},
	}
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("desc", "", "new description")
	cmd.Flags().String("priority", "", "low, medium or high")
	cmd.Flags().String("due", "", "due date; empty clears it")
	cmd.Flags().String("list", "", "list id or name")
	cmd.Flags().StringSlice("tag", nil, "labels, replacing the current ones")
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			t, err := s.GetTaskByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			names, err := listNames(cmd.Context(), s)
			if err != nil {
				return err
			}
			printTask(cmd.OutOrStdout(), *t, names[t.EffectiveListID()], e.loc)
			return nil
		},
	}
}

func newLsCmd(e *env) *cobra.Command {
	var (
		viewArg       string
		showCompleted bool
	)
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the tasks of a view",
		Long: `List the tasks of a view in display order.

Views: inbox, today, upcoming, overdue, trash, list:<id>, label:<name>,
search:<text>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := model.ParseView(viewArg)
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			at := e.now()

			tasks, err := s.GetTasks(ctx, view.StoreFilter(v, at, e.loc))
			if err != nil {
				return err
			}
			names, err := listNames(ctx, s)
			if err != nil {
				return err
			}

			res := view.Filter(tasks, v, at, e.loc)
			shown := res.Incomplete
			if showCompleted {
				shown = res.All()
			}
			if len(shown) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Nothing in %s.\n", v)
				return nil
			}
			printTasks(cmd.OutOrStdout(), shown, names, e.loc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&viewArg, "view", "v", "inbox", "view to list")
	cmd.Flags().BoolVarP(&showCompleted, "completed", "c", false, "include completed tasks")
	return cmd
}

// eachID runs fn for every id argument, stopping at the first failure.
func eachID(e *env, verb string, fn func(cmd *cobra.Command, s store.Store, id int64) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		s, err := e.open()
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := fn(cmd, s, id); err != nil {
				return fmt.Errorf("#%d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d\n", verb, id)
		}
		return nil
	}
}

func newDoneCmd(e *env, done bool) *cobra.Command {
	use, short, verb := "done <id>...", "Mark tasks completed", "Completed"
	if !done {
		use, short, verb = "undone <id>...", "Mark tasks not completed", "Reopened"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: eachID(e, verb, func(cmd *cobra.Command, s store.Store, id int64) error {
			return s.SetTaskCompletion(cmd.Context(), id, done)
		}),
	}
}

func newRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Move tasks to the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: eachID(e, "Trashed", func(cmd *cobra.Command, s store.Store, id int64) error {
			return s.SoftDeleteTask(cmd.Context(), id)
		}),
	}
}

func newRestoreCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>...",
		Short: "Restore tasks from the trash",
		Args:  cobra.MinimumNArgs(1),
		RunE: eachID(e, "Restored", func(cmd *cobra.Command, s store.Store, id int64) error {
			return s.RestoreTask(cmd.Context(), id)
		}),
	}
}

func newPurgeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <id>...",
		Short: "Delete tasks forever",
		Args:  cobra.MinimumNArgs(1),
		RunE: eachID(e, "Deleted", func(cmd *cobra.Command, s store.Store, id int64) error {
			return s.HardDeleteTask(cmd.Context(), id)
		}),
	}
}

func newEmptyTrashCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "empty-trash",
		Short: "Delete every trashed task forever",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			n, err := s.EmptyTrash(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d tasks\n", n)
			return nil
		},
	}
}

func newMvCmd(e *env) *cobra.Command {
	var viewArg string
	cmd := &cobra.Command{
		Use:   "mv <id> <target>",
		Short: "Drop a task onto a list, the Inbox, Today or another task",
		Long: `Drop a task onto a target, as dragging it in the UI would.

Targets: tag-<id> or list:<id> moves it to a list, smart-inbox or inbox moves
it to the Inbox, smart-today or today makes it due now, and a task id moves
it to that task's position in --view.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			target := dnd.ParseTarget(args[1])
			if target.Kind == dnd.TargetNone {
				return fmt.Errorf("unknown drop target %q", args[1])
			}
			v, err := model.ParseView(viewArg)
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			at := e.now()

			var displayed []model.Task
			if target.Kind == dnd.TargetTask {
				tasks, err := s.GetTasks(ctx, store.TaskFilter{IncludeDeleted: true})
				if err != nil {
					return err
				}
				displayed = view.Filter(tasks, v, at, e.loc).Incomplete
			}

			intent := dnd.Resolve(id, target, displayed)
			if intent.Kind == dnd.IntentNone {
				return fmt.Errorf("dropping #%d on %s does nothing in %s", id, args[1], v)
			}
			if err := dnd.Apply(ctx, s, intent, at); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved #%d to %s\n", id, target.Kind)
			return nil
		},
	}
	cmd.Flags().StringVarP(&viewArg, "view", "v", "inbox", "view whose order a task target refers to")
	return cmd
}

func newReorderCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>...",
		Short: "Renumber the given tasks in the given order",
		Long: `Set the order of each given task to its position times 1000.

Tasks left out keep their order keys; run compact afterwards if the result
overlaps other tasks.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			if err := s.ReorderTasks(cmd.Context(), ids); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reordered %d tasks\n", len(ids))
			return nil
		},
	}
}

func newCompactCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Renumber every live task's order key by its current position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			if err := s.NormalizeOrder(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Order keys renumbered")
			return nil
		},
	}
}
