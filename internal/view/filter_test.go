package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/model"
)

var (
	berlin = mustZone("Europe/Berlin")
	// 23:30 on 2024-03-13 in Berlin, 22:30 UTC.
	lateEvening = time.Date(2024, time.March, 13, 23, 30, 0, 0, berlin)
)

func mustZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func day(y int, m time.Month, d, hour int, loc *time.Location) *time.Time {
	t := time.Date(y, m, d, hour, 0, 0, 0, loc)
	return &t
}

func ids(tasks []model.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func fixture() []model.Task {
	work := int64(2)
	inbox := model.DefaultListID
	return []model.Task{
		{ID: 1, Title: "Yesterday", Order: 5000, DueDate: day(2024, time.March, 12, 9, berlin)},
		{ID: 2, Title: "Today early", Order: 1000, DueDate: day(2024, time.March, 13, 0, berlin)},
		{ID: 3, Title: "Tomorrow", Order: 3000, DueDate: day(2024, time.March, 14, 0, berlin), ListID: &work},
		{ID: 4, Title: "No date", Order: 2000, Description: "Call the Bank", ListID: &inbox},
		{ID: 5, Title: "Done yesterday", Order: 4000, IsCompleted: true, DueDate: day(2024, time.March, 12, 0, berlin)},
		{ID: 6, Title: "Trashed today", Order: 0, IsDeleted: true, DueDate: day(2024, time.March, 13, 12, berlin), ListID: &work, Tags: []string{"x"}},
		{ID: 7, Title: "Done today", Order: 6000, IsCompleted: true, DueDate: day(2024, time.March, 13, 8, berlin), Tags: []string{"x"}},
		{ID: 8, Title: "Tie", Order: 1000, ListID: &work},
	}
}

func TestFilter_SmartViews(t *testing.T) {
	tasks := fixture()

	tests := []struct {
		view       model.View
		incomplete []int64
		completed  []int64
	}{
		{model.InboxView, []int64{2, 4, 1}, []int64{5, 7}},
		{model.TodayView, []int64{2}, []int64{7}},
		{model.UpcomingView, []int64{3}, nil},
		{model.OverdueView, []int64{1}, nil},
		{model.ListView(2), []int64{8, 3}, nil},
		{model.LabelView("x"), nil, []int64{7}},
		{model.SearchView("bank"), []int64{4}, nil},
		{model.SearchView("TODAY"), []int64{2}, []int64{7}},
		{model.TrashView, []int64{6}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			res := Filter(tasks, tt.view, lateEvening, berlin)
			assert.Equal(t, tt.incomplete, nilIfEmpty(ids(res.Incomplete)))
			assert.Equal(t, tt.completed, nilIfEmpty(ids(res.Completed)))
			assert.Equal(t, len(tt.incomplete)+len(tt.completed), res.Len())
		})
	}
}

func nilIfEmpty(s []int64) []int64 {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestFilter_DateViewsAreExclusive(t *testing.T) {
	tasks := fixture()
	// Sweep due dates across three days in quarter-hour steps, both states.
	start := time.Date(2024, time.March, 12, 0, 0, 0, 0, berlin)
	for i := range 3 * 24 * 4 {
		due := start.Add(time.Duration(i) * 15 * time.Minute)
		for _, done := range []bool{false, true} {
			tasks = append(tasks, model.Task{ID: int64(100 + len(tasks)), DueDate: &due, IsCompleted: done})
		}
	}

	seen := map[int64]int{}
	for _, v := range []model.View{model.TodayView, model.UpcomingView, model.OverdueView} {
		for _, task := range Filter(tasks, v, lateEvening, berlin).All() {
			seen[task.ID]++
		}
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "task %d matched %d date views", id, n)
	}
}

func TestFilter_TrashOnlyInTrash(t *testing.T) {
	tasks := fixture()
	views := []model.View{
		model.InboxView, model.TodayView, model.UpcomingView, model.OverdueView,
		model.ListView(2), model.LabelView("x"), model.SearchView("trashed"),
	}

	for _, v := range views {
		for _, task := range Filter(tasks, v, lateEvening, berlin).All() {
			assert.False(t, task.IsDeleted, "view %s returned trashed task %d", v, task.ID)
		}
	}

	trash := Filter(tasks, model.TrashView, lateEvening, berlin).All()
	require.Len(t, trash, 1)
	assert.Equal(t, int64(6), trash[0].ID)
}

func TestFilter_OverdueCompletion(t *testing.T) {
	at := time.Date(2024, time.March, 13, 10, 0, 0, 0, time.UTC)
	yesterday := at.AddDate(0, 0, -1)
	task := model.Task{ID: 1, Title: "late", DueDate: &yesterday}

	assert.Equal(t, 1, Filter([]model.Task{task}, model.OverdueView, at, time.UTC).Len())

	task.IsCompleted = true
	for _, v := range []model.View{model.OverdueView, model.TodayView, model.UpcomingView} {
		assert.Zero(t, Filter([]model.Task{task}, v, at, time.UTC).Len(), "view %s", v)
	}
}

func TestFilter_DayBoundaryFollowsZone(t *testing.T) {
	// 23:30 Berlin is 22:30 UTC; a task due 2024-03-13 23:00 UTC is already
	// the 14th in Berlin.
	due := time.Date(2024, time.March, 13, 23, 0, 0, 0, time.UTC)
	tasks := []model.Task{{ID: 1, Title: "x", DueDate: &due}}

	assert.Equal(t, 1, Filter(tasks, model.UpcomingView, lateEvening, berlin).Len())
	assert.Equal(t, 1, Filter(tasks, model.TodayView, lateEvening, time.UTC).Len())
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	tasks := fixture()
	before := ids(tasks)

	Filter(tasks, model.InboxView, lateEvening, berlin)

	assert.Equal(t, before, ids(tasks))
}

func TestCounts(t *testing.T) {
	views := []model.View{model.InboxView, model.TodayView, model.OverdueView, model.ListView(2), model.TrashView}

	counts := Counts(fixture(), views, lateEvening, berlin)

	assert.Equal(t, map[string]int{
		"inbox":   3,
		"today":   1,
		"overdue": 1,
		"list:2":  2,
		"trash":   1,
	}, counts)
}

func TestSortByOrder_TiesByID(t *testing.T) {
	tasks := []model.Task{{ID: 9, Order: 1000}, {ID: 3, Order: 1000}, {ID: 5, Order: 0}}

	SortByOrder(tasks)

	assert.Equal(t, []int64{5, 3, 9}, ids(tasks))
}

func TestIsToday(t *testing.T) {
	assert.True(t, IsToday(time.Date(2024, time.March, 13, 0, 0, 0, 0, berlin), lateEvening, berlin))
	assert.False(t, IsToday(time.Date(2024, time.March, 13, 23, 0, 0, 0, time.UTC), lateEvening, berlin))
}
