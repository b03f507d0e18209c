package view

import (
	"time"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
)

// StoreFilter returns the store filter that fetches exactly the tasks v
// matches at the given instant, so callers that need one view need not load
// every task. Passing the fetched tasks through Filter is still what splits
// and orders them.
func StoreFilter(v model.View, at time.Time, loc *time.Location) store.TaskFilter {
	if loc == nil {
		loc = time.Local
	}
	today := startOfDay(at, loc)
	tomorrow := today.AddDate(0, 0, 1)

	switch v.Kind {
	case model.ViewTrash:
		return store.TaskFilter{OnlyDeleted: true}
	case model.ViewInbox:
		return store.TaskFilter{ListID: model.Ptr(model.DefaultListID)}
	case model.ViewToday:
		return store.TaskFilter{DueAfter: &today, DueBefore: &tomorrow}
	case model.ViewUpcoming:
		return store.TaskFilter{DueAfter: &tomorrow}
	case model.ViewOverdue:
		return store.TaskFilter{Completed: model.Ptr(false), DueBefore: &today}
	case model.ViewList:
		return store.TaskFilter{ListID: model.Ptr(v.ListID)}
	case model.ViewLabel:
		return store.TaskFilter{Tag: model.Ptr(v.Tag)}
	case model.ViewSearch:
		return store.TaskFilter{Query: model.Ptr(v.Query)}
	}
	return store.TaskFilter{}
}
