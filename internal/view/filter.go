// Package view splits tasks into the smart views, list views and the trash.
// Everything here is pure: callers pass the task set, the clock and the
// time zone in which calendar days are counted.
package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"github.com/nhle/taskflow/internal/model"
)

// Result holds the tasks a view matched, split by completion. Both halves
// keep the ascending (order, id) sequence.
type Result struct {
	Incomplete []model.Task
	Completed  []model.Task
}

// Len returns the total number of matched tasks.
func (r Result) Len() int {
	return len(r.Incomplete) + len(r.Completed)
}

// All returns incomplete tasks followed by completed ones.
func (r Result) All() []model.Task {
	out := make([]model.Task, 0, r.Len())
	out = append(out, r.Incomplete...)
	return append(out, r.Completed...)
}

// Filter applies v to tasks. at is the current instant and loc the zone used
// to truncate both at and due dates to calendar days; a nil loc means
// time.Local.
func Filter(tasks []model.Task, v model.View, at time.Time, loc *time.Location) Result {
	match := Predicate(v, at, loc)

	sorted := slices.Clone(tasks)
	SortByOrder(sorted)

	var res Result
	for _, t := range sorted {
		if !match(t) {
			continue
		}
		if t.IsCompleted {
			res.Completed = append(res.Completed, t)
		} else {
			res.Incomplete = append(res.Incomplete, t)
		}
	}
	return res
}

// Predicate returns the membership test for v. Trashed tasks only ever
// match the trash view.
func Predicate(v model.View, at time.Time, loc *time.Location) func(model.Task) bool {
	if loc == nil {
		loc = time.Local
	}
	today := startOfDay(at, loc)

	live := func(match func(model.Task) bool) func(model.Task) bool {
		return func(t model.Task) bool { return !t.IsDeleted && match(t) }
	}

	switch v.Kind {
	case model.ViewTrash:
		return func(t model.Task) bool { return t.IsDeleted }
	case model.ViewInbox:
		return live(model.Task.InInbox)
	case model.ViewToday:
		return live(func(t model.Task) bool {
			return t.DueDate != nil && startOfDay(*t.DueDate, loc).Equal(today)
		})
	case model.ViewUpcoming:
		return live(func(t model.Task) bool {
			return t.DueDate != nil && startOfDay(*t.DueDate, loc).After(today)
		})
	case model.ViewOverdue:
		return live(func(t model.Task) bool {
			return !t.IsCompleted && t.DueDate != nil && startOfDay(*t.DueDate, loc).Before(today)
		})
	case model.ViewList:
		return live(func(t model.Task) bool { return t.EffectiveListID() == v.ListID })
	case model.ViewLabel:
		return live(func(t model.Task) bool { return t.HasTag(v.Tag) })
	case model.ViewSearch:
		q := strings.ToLower(v.Query)
		return live(func(t model.Task) bool {
			return strings.Contains(strings.ToLower(t.Title), q) ||
				strings.Contains(strings.ToLower(t.Description), q)
		})
	}
	return func(model.Task) bool { return false }
}

// Counts returns the number of incomplete tasks in each view, keyed by
// View.String().
func Counts(tasks []model.Task, views []model.View, at time.Time, loc *time.Location) map[string]int {
	counts := make(map[string]int, len(views))
	for _, v := range views {
		match := Predicate(v, at, loc)
		n := 0
		for _, t := range tasks {
			if !t.IsCompleted && match(t) {
				n++
			}
		}
		counts[v.String()] = n
	}
	return counts
}

// SortByOrder sorts tasks in place by order, then id.
func SortByOrder(tasks []model.Task) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// IsToday reports whether t falls on the same calendar day as at in loc.
func IsToday(t, at time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	return startOfDay(t, loc).Equal(startOfDay(at, loc))
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	return now.With(t.In(loc)).BeginningOfDay()
}
