package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/nhle/taskflow/internal/model"
)

// CreateTag registers a label. Registering an existing name updates its
// color instead.
func (s *SQLiteStore) CreateTag(ctx context.Context, tag model.Tag) (*model.Tag, error) {
	tag.Name = strings.TrimSpace(tag.Name)
	if tag.Name == "" {
		return nil, invalid("creating tag: name must not be empty")
	}

	err := s.withTx(ctx, "creating tag", func(tx *sqlx.Tx, cs *changeSet) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tags (name, color) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET color = excluded.color`,
			tag.Name, tag.Color,
		)
		if err != nil {
			return storeFailure("creating tag", err)
		}
		if err := tx.GetContext(ctx, &tag.ID,
			"SELECT id FROM tags WHERE name = ?", tag.Name); err != nil {
			return storeFailure("creating tag", err)
		}
		cs.add(CollectionTags, tag.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// DeleteTag unregisters a label and strips it from every task in the same
// transaction.
func (s *SQLiteStore) DeleteTag(ctx context.Context, name string) error {
	now := s.now().UTC()
	return s.withTx(ctx, "deleting tag", func(tx *sqlx.Tx, cs *changeSet) error {
		var tagID int64
		err := tx.GetContext(ctx, &tagID, "SELECT COALESCE(MAX(id), 0) FROM tags WHERE name = ?", name)
		if err != nil {
			return storeFailure("deleting tag", err)
		}

		var tasks []int64
		if err := tx.SelectContext(ctx, &tasks,
			"SELECT task_id FROM task_tags WHERE name = ? ORDER BY task_id", name); err != nil {
			return storeFailure("deleting tag", err)
		}
		if tagID == 0 && len(tasks) == 0 {
			return notFound("tag", name)
		}

		if len(tasks) > 0 {
			if _, err := tx.ExecContext(ctx, "DELETE FROM task_tags WHERE name = ?", name); err != nil {
				return storeFailure(fmt.Sprintf("deleting tag %q", name), err)
			}
			query, args, err := sqlx.In("UPDATE tasks SET updated_at = ? WHERE id IN (?)", now, tasks)
			if err != nil {
				return storeFailure("deleting tag", err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
				return storeFailure(fmt.Sprintf("deleting tag %q", name), err)
			}
			cs.add(CollectionTasks, tasks...)
		}
		if tagID != 0 {
			if _, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", tagID); err != nil {
				return storeFailure(fmt.Sprintf("deleting tag %q", name), err)
			}
			cs.add(CollectionTags, tagID)
		}
		return nil
	})
}

// GetTags retrieves all registered labels ordered by name.
func (s *SQLiteStore) GetTags(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if err := s.db.SelectContext(ctx, &tags, "SELECT id, name, color FROM tags ORDER BY name"); err != nil {
		return nil, storeFailure("querying tags", err)
	}
	return tags, nil
}
