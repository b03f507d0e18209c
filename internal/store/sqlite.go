package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/taskflow/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	hub *hub
	now func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock replaces time.Now for created/updated timestamps and for the
// order key of the first task.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection: SQLite has a single writer anyway, PRAGMAs are
	// per-connection, and ":memory:" databases are per-connection too.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := newStore(db, opts...)
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.ensureDefaultList(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func newStore(db *sqlx.DB, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{db: db, hub: newHub(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close ends all subscriptions and closes the database connection.
func (s *SQLiteStore) Close() error {
	s.hub.closeAll()
	return s.db.Close()
}

// Subscribe returns a channel that receives a Change after every committed
// transaction touching one of collections (all collections if none given).
// Delivery coalesces: a slow reader sees at least one change per burst, not
// every change. Call cancel to unsubscribe; it closes the channel.
func (s *SQLiteStore) Subscribe(collections ...Collection) (<-chan Change, func()) {
	return s.hub.subscribe(collections)
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// ensureDefaultList restores the Inbox row if it has gone missing, so the
// default list exists for the lifetime of the store.
func (s *SQLiteStore) ensureDefaultList() error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO lists (id, name, color, icon, is_default)
		VALUES (?, 'Inbox', '#6366f1', 'inbox', 1)`, model.DefaultListID)
	if err != nil {
		return fmt.Errorf("seeding default list: %w", err)
	}
	_, err = s.db.Exec("UPDATE lists SET is_default = CASE WHEN id = ? THEN 1 ELSE 0 END",
		model.DefaultListID)
	if err != nil {
		return fmt.Errorf("marking default list: %w", err)
	}
	return nil
}

// withTx runs fn inside one transaction and publishes the recorded changes
// once the commit succeeds. Errors from fn are returned unchanged; begin and
// commit failures are reported as ErrStoreFailure.
func (s *SQLiteStore) withTx(
	ctx context.Context,
	op string,
	fn func(tx *sqlx.Tx, cs *changeSet) error,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeFailure(op, fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	cs := &changeSet{}
	if err := fn(tx, cs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeFailure(op, fmt.Errorf("committing: %w", err))
	}

	s.hub.publish(cs.changes(s.now().UTC()))
	return nil
}

// taskColumns is the column list every task query selects, in scanTask order.
const taskColumns = `tasks.id, tasks.title, tasks.description, tasks.is_completed,
	tasks.due_date, tasks.priority, tasks.list_id, tasks.sort_order,
	tasks.subtasks, tasks.is_deleted, tasks.created_at, tasks.updated_at`

// scanTask scans a task row selected with taskColumns. Tags are loaded
// separately.
func scanTask(rows interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		task         model.Task
		completedInt int
		deletedInt   int
		priority     string
		subtasks     string
		dueDate      *time.Time
		listID       *int64
	)

	err := rows.Scan(
		&task.ID, &task.Title, &task.Description, &completedInt,
		&dueDate, &priority, &listID, &task.Order,
		&subtasks, &deletedInt, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	task.IsCompleted = completedInt != 0
	task.IsDeleted = deletedInt != 0
	task.Priority = model.Priority(priority)
	task.DueDate = dueDate
	task.ListID = listID

	if subtasks != "" {
		if err := json.Unmarshal([]byte(subtasks), &task.Subtasks); err != nil {
			return model.Task{}, fmt.Errorf("unmarshaling subtasks of task %d: %w", task.ID, err)
		}
	}
	if len(task.Subtasks) == 0 {
		task.Subtasks = nil
	}

	return task, nil
}

// scanList scans a lists row.
func scanList(rows interface{ Scan(dest ...interface{}) error }) (model.TaskList, error) {
	var (
		l          model.TaskList
		defaultInt int
	)
	if err := rows.Scan(&l.ID, &l.Name, &l.Color, &l.Icon, &defaultInt); err != nil {
		return model.TaskList{}, fmt.Errorf("scanning list row: %w", err)
	}
	l.IsDefault = defaultInt != 0
	return l, nil
}

// listExists reports whether a list row with id exists.
func listExists(ctx context.Context, q sqlx.QueryerContext, id int64) (bool, error) {
	var n int
	if err := sqlx.GetContext(ctx, q, &n, "SELECT COUNT(*) FROM lists WHERE id = ?", id); err != nil {
		return false, err
	}
	return n > 0, nil
}

// rowsAffected reads RowsAffected, which the sqlite driver always supports.
func rowsAffected(res sql.Result) int64 {
	n, _ := res.RowsAffected()
	return n
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
