package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/app"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/internal/theme"
)

// env is the state shared by every command: the resolved configuration and
// a store opened on first use.
type env struct {
	configPath string
	dbPath     string
	now        func() time.Time

	cfg   *model.AppConfig
	loc   *time.Location
	store *store.SQLiteStore
}

// Execute runs the root command
func Execute(version string) error {
	e := &env{now: time.Now}
	defer e.close()

	if err := newRootCmd(version, e).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(version string, e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "taskflow",
		Short: "A keyboard-driven personal task manager",
		Long: `taskflow keeps tasks, lists and labels in a local SQLite database.

Run without arguments to open the terminal UI, or use the subcommands to
script it.`,
		RunE:          e.runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	root.PersistentFlags().StringVar(&e.configPath, "config", model.DefaultConfigPath(), "config file")
	root.PersistentFlags().StringVar(&e.dbPath, "db", "", "database file (overrides db_path)")
	root.Flags().String("view", "inbox", "view to open: inbox, today, upcoming, overdue, trash, list:<id>, label:<name>")

	root.AddCommand(
		newAddCmd(e),
		newEditCmd(e),
		newShowCmd(e),
		newLsCmd(e),
		newDoneCmd(e, true),
		newDoneCmd(e, false),
		newRmCmd(e),
		newRestoreCmd(e),
		newPurgeCmd(e),
		newEmptyTrashCmd(e),
		newMvCmd(e),
		newReorderCmd(e),
		newCompactCmd(e),
		newListsCmd(e),
		newLabelsCmd(e),
		newSubCmd(e),
		newExportCmd(e),
		newConfigCmd(e),
	)
	return root
}

// load resolves the configuration once. --db wins over the file and
// TASKFLOW_DB.
func (e *env) load() error {
	if e.cfg != nil {
		return nil
	}
	cfg, err := model.LoadConfig(e.configPath)
	if err != nil {
		return err
	}
	if e.dbPath != "" {
		cfg.DBPath = e.dbPath
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	e.cfg, e.loc = cfg, loc
	return nil
}

// open returns the store, opening it on first use.
func (e *env) open() (*store.SQLiteStore, error) {
	if e.store != nil {
		return e.store, nil
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	s, err := store.NewSQLiteStore(e.cfg.DBPath, store.WithClock(e.now))
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", e.cfg.DBPath, err)
	}
	e.store = s
	return s, nil
}

func (e *env) close() error {
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

func (e *env) runTUI(cmd *cobra.Command, args []string) error {
	s, err := e.open()
	if err != nil {
		return err
	}

	viewArg, _ := cmd.Flags().GetString("view")
	start, err := model.ParseView(viewArg)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI; logs go to a file or nowhere.
	if e.cfg.LogFile != "" {
		f, err := tea.LogToFile(e.cfg.LogFile, "taskflow")
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	theme.Apply(e.cfg.Display.Theme)

	m := app.New(s, app.Options{
		Location:      e.loc,
		ShowCompleted: e.cfg.Display.ShowCompleted,
		StartView:     start,
		Now:           e.now,
		ConfigPath:    e.configPath,
		Config:        *e.cfg,
	})
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
