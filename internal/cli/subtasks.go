package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/model"
)

func newSubCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sub",
		Aliases: []string{"subtask"},
		Short:   "Manage a task's subtasks",
	}

	add := &cobra.Command{
		Use:   "add <task> <title>",
		Short: "Append a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			st, err := s.AddSubtask(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added subtask %s to #%d\n", st.ID, id)
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <task> <subtask>",
		Short: "Flip a subtask's completion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			if err := s.ToggleSubtask(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Toggled subtask %s\n", args[1])
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <task> <subtask>",
		Short: "Remove a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			if err := s.DeleteSubtask(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed subtask %s\n", args[1])
			return nil
		},
	}

	due := &cobra.Command{
		Use:   "due <task> <subtask> [date]",
		Short: "Set or clear a subtask's due date",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := e.open()
			if err != nil {
				return err
			}
			dateArg := ""
			if len(args) == 3 {
				dateArg = args[2]
			}
			date, err := model.ParseDate(dateArg, e.now(), e.loc)
			if err != nil {
				return err
			}
			if err := s.SetSubtaskDueDate(cmd.Context(), id, args[1], date); err != nil {
				return err
			}
			if date == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared due date of subtask %s\n", args[1])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Subtask %s due %s\n", args[1], date.Format(model.DateLayout))
			}
			return nil
		},
	}

	cmd.AddCommand(add, toggle, rm, due)
	return cmd
}
