package app

import (
	"context"

	"github.com/nhle/taskflow/internal/live"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
)

// catalog is everything the sidebar and forms offer besides tasks.
type catalog struct {
	lists []model.TaskList
	tags  []model.Tag
}

// watchTasks keeps every task, trashed ones included, current. The views
// are computed in memory from this one result.
func watchTasks(ctx context.Context, s store.Store) *live.Query[[]model.Task] {
	return live.Watch(ctx, "tasks", s, func(ctx context.Context) ([]model.Task, error) {
		return s.GetTasks(ctx, store.TaskFilter{IncludeDeleted: true})
	}, store.CollectionTasks)
}

// watchCatalog keeps lists and labels current. Label deletions touch tasks
// too, so both collections trigger a refresh.
func watchCatalog(ctx context.Context, s store.Store) *live.Query[catalog] {
	return live.Watch(ctx, "catalog", s, func(ctx context.Context) (catalog, error) {
		lists, err := s.GetLists(ctx)
		if err != nil {
			return catalog{}, err
		}
		tags, err := s.GetTags(ctx)
		if err != nil {
			return catalog{}, err
		}
		return catalog{lists: lists, tags: tags}, nil
	}, store.CollectionLists, store.CollectionTags)
}

// listName returns the display name of id, or "Inbox".
func (c catalog) listName(id int64) string {
	for _, l := range c.lists {
		if l.ID == id {
			return l.Name
		}
	}
	return "Inbox"
}
