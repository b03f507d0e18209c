package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/tests/testutil"
)

func createTasks(t *testing.T, s store.Store, titles ...string) []*model.Task {
	t.Helper()
	out := make([]*model.Task, len(titles))
	for i, title := range titles {
		task, err := s.CreateTask(context.Background(), model.NewTask{Title: title})
		require.NoError(t, err)
		out[i] = task
	}
	return out
}

func ids(tasks []model.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func orders(tasks []model.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.Order
	}
	return out
}

func TestCreateTask_Defaults(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, model.NewTask{Title: "  Buy milk  ", Tags: []string{"home", " ", "home", "errand"}})
	require.NoError(t, err)

	assert.NotZero(t, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.Nil(t, task.ListID)
	assert.True(t, task.InInbox())
	assert.Equal(t, testutil.Epoch.UnixMilli(), task.Order)
	assert.Equal(t, []string{"home", "errand"}, task.Tags)

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, task.Order, got.Order)
	assert.Equal(t, []string{"home", "errand"}, got.Tags)
	assert.True(t, got.CreatedAt.Equal(task.CreatedAt))
	assert.Empty(t, got.Subtasks)

	tags, err := s.GetTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "errand", tags[0].Name)
	assert.Equal(t, "home", tags[1].Name)
}

func TestCreateTask_OrderFollowsCreation(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)

	created := createTasks(t, s, "one", "two", "three", "four", "five")
	for i := 1; i < len(created); i++ {
		assert.Equal(t, created[i-1].Order+model.OrderStep, created[i].Order)
	}

	all, err := s.GetTasks(context.Background(), store.TaskFilter{})
	require.NoError(t, err)
	want := make([]int64, len(created))
	for i, c := range created {
		want[i] = c.ID
	}
	assert.Equal(t, want, ids(all))
}

func TestCreateTask_EmptyTitle(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := s.CreateTask(ctx, model.NewTask{Title: title})
		assert.ErrorIs(t, err, store.ErrInvalidOperation, "title %q", title)
	}

	all, err := s.GetTasks(ctx, store.TaskFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateTask_UnknownList(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)

	_, err := s.CreateTask(context.Background(), model.NewTask{Title: "x", ListID: model.Ptr(int64(42))})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateTask_BadPriority(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)

	_, err := s.CreateTask(context.Background(), model.NewTask{Title: "x", Priority: "urgent"})
	assert.ErrorIs(t, err, store.ErrInvalidOperation)
}

func TestPriority_NormalizedBeforeWrite(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, model.NewTask{Title: "x", Priority: "HIGH"})
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, task.Priority)

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, got.Priority)

	require.NoError(t, s.UpdateTask(ctx, task.ID, model.TaskPatch{Priority: model.Ptr(model.Priority(" low "))}))
	got, err = s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityLow, got.Priority)

	err = s.UpdateTask(ctx, task.ID, model.TaskPatch{Priority: model.Ptr(model.Priority("urgent"))})
	assert.ErrorIs(t, err, store.ErrInvalidOperation)
}

func TestUpdateTask(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	work, err := s.CreateList(ctx, model.TaskList{Name: "Work"})
	require.NoError(t, err)
	task := createTasks(t, s, "draft")[0]

	due := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	err = s.UpdateTask(ctx, task.ID, model.TaskPatch{
		Title:    model.Ptr("report"),
		DueDate:  &due,
		Priority: model.Ptr(model.PriorityHigh),
		ListID:   model.Ptr(work.ID),
		Tags:     &[]string{"q1"},
	})
	require.NoError(t, err)

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "report", got.Title)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))
	assert.Equal(t, model.PriorityHigh, got.Priority)
	assert.Equal(t, work.ID, got.EffectiveListID())
	assert.Equal(t, []string{"q1"}, got.Tags)
	assert.True(t, got.UpdatedAt.After(task.UpdatedAt))
	assert.Equal(t, task.Order, got.Order)

	require.NoError(t, s.UpdateTask(ctx, task.ID, model.TaskPatch{ClearDueDate: true}))
	got, err = s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)
}

func TestUpdateTask_Errors(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	task := createTasks(t, s, "keep")[0]

	err := s.UpdateTask(ctx, 999, model.TaskPatch{Title: model.Ptr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.UpdateTask(ctx, task.ID, model.TaskPatch{Title: model.Ptr("  ")})
	assert.ErrorIs(t, err, store.ErrInvalidOperation)

	err = s.UpdateTask(ctx, task.ID, model.TaskPatch{ListID: model.Ptr(int64(77))})
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep", got.Title)
	assert.Nil(t, got.ListID)
}

func TestToggleTaskCompletion(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	task := createTasks(t, s, "flip")[0]

	require.NoError(t, s.ToggleTaskCompletion(ctx, task.ID))
	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	require.NoError(t, s.ToggleTaskCompletion(ctx, task.ID))
	got, err = s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)

	require.NoError(t, s.SetTaskCompletion(ctx, task.ID, true))
	got, err = s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	assert.ErrorIs(t, s.ToggleTaskCompletion(ctx, 404), store.ErrNotFound)
}

func TestSoftDeleteRestore_KeepsFields(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()

	due := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	created, err := s.CreateTask(ctx, model.NewTask{
		Title:       "archive me",
		Description: "notes",
		DueDate:     &due,
		Priority:    model.PriorityLow,
		Tags:        []string{"a", "b"},
	})
	require.NoError(t, err)
	_, err = s.AddSubtask(ctx, created.ID, "step")
	require.NoError(t, err)

	before, err := s.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, s.SoftDeleteTask(ctx, created.ID))
	trashed, err := s.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, trashed.IsDeleted)

	require.NoError(t, s.RestoreTask(ctx, created.ID))
	after, err := s.GetTaskByID(ctx, created.ID)
	require.NoError(t, err)

	assert.False(t, after.IsDeleted)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	after.UpdatedAt = before.UpdatedAt
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.Description, after.Description)
	assert.True(t, after.DueDate.Equal(*before.DueDate))
	assert.Equal(t, before.Priority, after.Priority)
	assert.Equal(t, before.Order, after.Order)
	assert.Equal(t, before.Tags, after.Tags)
	assert.Equal(t, before.Subtasks, after.Subtasks)
	assert.True(t, after.CreatedAt.Equal(before.CreatedAt))
}

func TestHardDeleteTask_Idempotent(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	task := createTasks(t, s, "gone")[0]

	require.NoError(t, s.HardDeleteTask(ctx, task.ID))
	require.NoError(t, s.HardDeleteTask(ctx, task.ID))
	require.NoError(t, s.HardDeleteTask(ctx, 12345))

	_, err := s.GetTaskByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEmptyTrash(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	tasks := createTasks(t, s, "a", "b", "c")

	n, err := s.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.SoftDeleteTask(ctx, tasks[0].ID))
	require.NoError(t, s.SoftDeleteTask(ctx, tasks[2].ID))

	n, err = s.EmptyTrash(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := s.GetTasks(ctx, store.TaskFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{tasks[1].ID}, ids(all))
}

func TestReorderTasks(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()

	tasks := createTasks(t, s, "A", "B", "C")
	a, b, c := tasks[0], tasks[1], tasks[2]
	assert.Less(t, a.Order, b.Order)
	assert.Less(t, b.Order, c.Order)

	require.NoError(t, s.ReorderTasks(ctx, []int64{c.ID, a.ID, b.ID}))

	all, err := s.GetTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, a.ID, b.ID}, ids(all))
	assert.Equal(t, []int64{0, 1000, 2000}, orders(all))
}

func TestReorderTasks_Idempotent(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	tasks := createTasks(t, s, "A", "B", "C", "D")
	order := []int64{tasks[3].ID, tasks[1].ID, tasks[0].ID, tasks[2].ID}

	require.NoError(t, s.ReorderTasks(ctx, order))
	once, err := s.GetTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)

	require.NoError(t, s.ReorderTasks(ctx, order))
	twice, err := s.GetTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)

	assert.Equal(t, ids(once), ids(twice))
	assert.Equal(t, orders(once), orders(twice))
}

func TestReorderTasks_Rejects(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	tasks := createTasks(t, s, "A", "B", "C")
	require.NoError(t, s.SoftDeleteTask(ctx, tasks[2].ID))

	tests := []struct {
		name string
		ids  []int64
		err  error
	}{
		{"unknown id", []int64{tasks[0].ID, 999}, store.ErrNotFound},
		{"trashed id", []int64{tasks[2].ID, tasks[0].ID}, store.ErrInvalidOperation},
		{"duplicate id", []int64{tasks[0].ID, tasks[1].ID, tasks[0].ID}, store.ErrInvalidOperation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ReorderTasks(ctx, tt.ids)
			assert.ErrorIs(t, err, tt.err)

			// Nothing was renumbered.
			got, err := s.GetTaskByID(ctx, tasks[0].ID)
			require.NoError(t, err)
			assert.Equal(t, tasks[0].Order, got.Order)
		})
	}

	assert.NoError(t, s.ReorderTasks(ctx, nil))
}

func TestNormalizeOrder(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	tasks := createTasks(t, s, "A", "B", "C", "D")

	// A partial reorder leaves B and C where they were, far above 0..1000.
	require.NoError(t, s.ReorderTasks(ctx, []int64{tasks[3].ID, tasks[0].ID}))
	require.NoError(t, s.SoftDeleteTask(ctx, tasks[2].ID))
	trashed, err := s.GetTaskByID(ctx, tasks[2].ID)
	require.NoError(t, err)

	require.NoError(t, s.NormalizeOrder(ctx))

	all, err := s.GetTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, []int64{tasks[3].ID, tasks[0].ID, tasks[1].ID}, ids(all))
	assert.Equal(t, []int64{0, 1000, 2000}, orders(all))

	got, err := s.GetTaskByID(ctx, tasks[2].ID)
	require.NoError(t, err)
	assert.Equal(t, trashed.Order, got.Order)
}

func TestGetTasks_Filters(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()

	work, err := s.CreateList(ctx, model.TaskList{Name: "Work"})
	require.NoError(t, err)
	mar15 := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	mar20 := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)

	inbox, err := s.CreateTask(ctx, model.NewTask{Title: "Call plumber", DueDate: &mar15})
	require.NoError(t, err)
	explicit, err := s.CreateTask(ctx, model.NewTask{Title: "Pay rent", ListID: model.Ptr(model.DefaultListID)})
	require.NoError(t, err)
	report, err := s.CreateTask(ctx, model.NewTask{
		Title: "Quarterly report", Description: "100% done by Friday",
		ListID: &work.ID, DueDate: &mar20, Tags: []string{"q1"},
	})
	require.NoError(t, err)
	trashed, err := s.CreateTask(ctx, model.NewTask{Title: "Old report", ListID: &work.ID})
	require.NoError(t, err)
	require.NoError(t, s.SoftDeleteTask(ctx, trashed.ID))
	require.NoError(t, s.SetTaskCompletion(ctx, explicit.ID, true))

	tests := []struct {
		name   string
		filter store.TaskFilter
		want   []int64
	}{
		{"live", store.TaskFilter{}, []int64{inbox.ID, explicit.ID, report.ID}},
		{"include deleted", store.TaskFilter{IncludeDeleted: true}, []int64{inbox.ID, explicit.ID, report.ID, trashed.ID}},
		{"only deleted", store.TaskFilter{OnlyDeleted: true, IncludeDeleted: true}, []int64{trashed.ID}},
		{"inbox matches null list", store.TaskFilter{ListID: model.Ptr(model.DefaultListID)}, []int64{inbox.ID, explicit.ID}},
		{"list", store.TaskFilter{ListID: &work.ID}, []int64{report.ID}},
		{"completed", store.TaskFilter{Completed: model.Ptr(true)}, []int64{explicit.ID}},
		{"open", store.TaskFilter{Completed: model.Ptr(false)}, []int64{inbox.ID, report.ID}},
		{"tag", store.TaskFilter{Tag: model.Ptr("q1")}, []int64{report.ID}},
		{"query title", store.TaskFilter{Query: model.Ptr("REPORT")}, []int64{report.ID}},
		{"query description", store.TaskFilter{Query: model.Ptr("100%")}, []int64{report.ID}},
		{"query wildcard is literal", store.TaskFilter{Query: model.Ptr("_")}, nil},
		{"due after", store.TaskFilter{DueAfter: &mar20}, []int64{report.ID}},
		{"due before", store.TaskFilter{DueBefore: &mar20}, []int64{inbox.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetTasks(ctx, tt.filter)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSubscribe_PublishesAfterCommit(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()

	taskCh, cancelTasks := s.Subscribe(store.CollectionTasks)
	defer cancelTasks()
	listCh, cancelLists := s.Subscribe(store.CollectionLists)
	defer cancelLists()

	task := createTasks(t, s, "watched")[0]

	select {
	case c := <-taskCh:
		assert.Equal(t, store.CollectionTasks, c.Collection)
		assert.Contains(t, c.IDs, task.ID)
	case <-time.After(time.Second):
		t.Fatal("no task change delivered")
	}
	select {
	case c := <-listCh:
		t.Fatalf("unexpected list change %+v", c)
	default:
	}

	// A failed mutation publishes nothing.
	_, err := s.CreateTask(ctx, model.NewTask{Title: ""})
	require.Error(t, err)
	require.ErrorIs(t, s.UpdateTask(ctx, 999, model.TaskPatch{Title: model.Ptr("x")}), store.ErrNotFound)
	select {
	case c := <-taskCh:
		t.Fatalf("unexpected change after failed mutation %+v", c)
	default:
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)

	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	createTasks(t, s, "after cancel")
}
