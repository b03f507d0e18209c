package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskflow/internal/model"
)

// CreateList inserts a new list. Name is trimmed and must not be empty.
func (s *SQLiteStore) CreateList(ctx context.Context, l model.TaskList) (*model.TaskList, error) {
	l.Name = strings.TrimSpace(l.Name)
	if l.Name == "" {
		return nil, invalid("creating list: name must not be empty")
	}
	l.IsDefault = false

	err := s.withTx(ctx, "creating list", func(tx *sqlx.Tx, cs *changeSet) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO lists (name, color, icon, is_default) VALUES (?, ?, ?, 0)",
			l.Name, l.Color, l.Icon,
		)
		if err != nil {
			return storeFailure("creating list", err)
		}
		l.ID, err = res.LastInsertId()
		if err != nil {
			return storeFailure("creating list", err)
		}
		cs.add(CollectionLists, l.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateList renames, recolors or changes the icon of a list.
func (s *SQLiteStore) UpdateList(ctx context.Context, id int64, patch model.ListPatch) error {
	return s.withTx(ctx, "updating list", func(tx *sqlx.Tx, cs *changeSet) error {
		l, err := loadList(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(l)
		l.Name = strings.TrimSpace(l.Name)
		if l.Name == "" {
			return invalid("updating list %d: name must not be empty", id)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE lists SET name = ?, color = ?, icon = ? WHERE id = ?",
			l.Name, l.Color, l.Icon, id,
		)
		if err != nil {
			return storeFailure(fmt.Sprintf("updating list %d", id), err)
		}
		cs.add(CollectionLists, id)
		return nil
	})
}

// DeleteList removes a list and moves its tasks, trashed ones included, to
// the Inbox in the same transaction. The Inbox itself cannot be deleted.
func (s *SQLiteStore) DeleteList(ctx context.Context, id int64) error {
	if id == model.DefaultListID {
		return invalid("deleting list %d: the default list is protected", id)
	}

	now := s.now().UTC()
	return s.withTx(ctx, "deleting list", func(tx *sqlx.Tx, cs *changeSet) error {
		ok, err := listExists(ctx, tx, id)
		if err != nil {
			return storeFailure("deleting list", err)
		}
		if !ok {
			return notFound("list", id)
		}

		var moved []int64
		if err := tx.SelectContext(ctx, &moved,
			"SELECT id FROM tasks WHERE list_id = ? ORDER BY id", id); err != nil {
			return storeFailure(fmt.Sprintf("deleting list %d", id), err)
		}
		if len(moved) > 0 {
			_, err := tx.ExecContext(ctx,
				"UPDATE tasks SET list_id = ?, updated_at = ? WHERE list_id = ?",
				model.DefaultListID, now, id,
			)
			if err != nil {
				return storeFailure(fmt.Sprintf("reassigning tasks of list %d", id), err)
			}
			cs.add(CollectionTasks, moved...)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM lists WHERE id = ?", id); err != nil {
			return storeFailure(fmt.Sprintf("deleting list %d", id), err)
		}
		cs.add(CollectionLists, id)
		return nil
	})
}

// GetLists retrieves all lists, the Inbox first and the rest by id.
func (s *SQLiteStore) GetLists(ctx context.Context) ([]model.TaskList, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, name, color, icon, is_default FROM lists ORDER BY is_default DESC, id")
	if err != nil {
		return nil, storeFailure("querying lists", err)
	}
	defer rows.Close()

	var lists []model.TaskList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, storeFailure("querying lists", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailure("querying lists", err)
	}
	return lists, nil
}

// GetListByID retrieves a single list by ID.
func (s *SQLiteStore) GetListByID(ctx context.Context, id int64) (*model.TaskList, error) {
	return loadList(ctx, s.db, id)
}

func loadList(ctx context.Context, q sqlx.QueryerContext, id int64) (*model.TaskList, error) {
	row := q.QueryRowxContext(ctx,
		"SELECT id, name, color, icon, is_default FROM lists WHERE id = ?", id)
	l, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("list", id)
	}
	if err != nil {
		return nil, storeFailure(fmt.Sprintf("getting list %d", id), err)
	}
	return &l, nil
}
