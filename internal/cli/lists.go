package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
)

func newListsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage lists",
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "Show lists with their open task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			lists, err := s.GetLists(ctx)
			if err != nil {
				return err
			}
			tasks, err := s.GetTasks(ctx, store.TaskFilter{Completed: model.Ptr(false)})
			if err != nil {
				return err
			}
			open := map[int64]int{}
			for _, t := range tasks {
				open[t.EffectiveListID()]++
			}

			rows := make([][]string, len(lists))
			for i, l := range lists {
				name := l.Name
				if l.IsDefault {
					name += " (default)"
				}
				rows[i] = []string{strconv.FormatInt(l.ID, 10), name, l.Color, l.Icon, strconv.Itoa(open[l.ID])}
			}
			fmt.Fprintln(cmd.OutOrStdout(), table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "NAME", "COLOR", "ICON", "OPEN").
				Rows(rows...).
				Render())
			return nil
		},
	}

	var color, icon string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			l, err := s.CreateList(cmd.Context(), model.TaskList{
				Name:  strings.Join(args, " "),
				Color: color,
				Icon:  icon,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created list #%d %s\n", l.ID, l.Name)
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", "", "display color, e.g. #6BCB77")
	add.Flags().StringVar(&icon, "icon", "", "icon key")

	rename := &cobra.Command{
		Use:   "rename <list> <name>",
		Short: "Rename or restyle a list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := resolveList(ctx, s, args[0])
			if err != nil {
				return err
			}
			var patch model.ListPatch
			if len(args) > 1 {
				patch.Name = model.Ptr(strings.Join(args[1:], " "))
			}
			if cmd.Flags().Changed("color") {
				v, _ := cmd.Flags().GetString("color")
				patch.Color = &v
			}
			if cmd.Flags().Changed("icon") {
				v, _ := cmd.Flags().GetString("icon")
				patch.Icon = &v
			}
			if err := s.UpdateList(ctx, id, patch); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated list #%d\n", id)
			return nil
		},
	}
	rename.Flags().String("color", "", "display color")
	rename.Flags().String("icon", "", "icon key")

	rm := &cobra.Command{
		Use:   "rm <list>",
		Short: "Delete a list; its tasks move to the Inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := resolveList(ctx, s, args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteList(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted list #%d, its tasks moved to Inbox\n", id)
			return nil
		},
	}

	cmd.AddCommand(ls, add, rename, rm)
	return cmd
}

func newLabelsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "labels",
		Aliases: []string{"tags"},
		Short:   "Manage labels",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "Show registered labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			tags, err := s.GetTags(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tags {
				line := "#" + t.Name
				if t.Color != "" {
					line += "  " + t.Color
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	})

	var color string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a label, or change its color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			t, err := s.CreateTag(cmd.Context(), model.Tag{Name: args[0], Color: color})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Label #%s saved\n", t.Name)
			return nil
		},
	}
	add.Flags().StringVar(&color, "color", "", "display color")

	rm := &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a label and remove it from every task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := e.open()
			if err != nil {
				return err
			}
			if err := s.DeleteTag(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted label #%s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}
