package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/tests/testutil"
)

func TestInboxSeeded(t *testing.T) {
	s := testutil.NewTestStore(t)

	lists, err := s.GetLists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, model.DefaultListID, lists[0].ID)
	assert.Equal(t, "Inbox", lists[0].Name)
	assert.True(t, lists[0].IsDefault)
}

func TestCreateList(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	l, err := s.CreateList(ctx, model.TaskList{Name: " Work ", Color: "#FF6B6B", Icon: "💼", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, "Work", l.Name)
	assert.False(t, l.IsDefault)
	assert.NotEqual(t, model.DefaultListID, l.ID)

	got, err := s.GetListByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, *l, *got)

	_, err = s.CreateList(ctx, model.TaskList{Name: "  "})
	assert.ErrorIs(t, err, store.ErrInvalidOperation)

	lists, err := s.GetLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, model.DefaultListID, lists[0].ID)
}

func TestUpdateList(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	l, err := s.CreateList(ctx, model.TaskList{Name: "Home", Color: "#4D96FF"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateList(ctx, l.ID, model.ListPatch{Name: model.Ptr("House")}))
	got, err := s.GetListByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "House", got.Name)
	assert.Equal(t, "#4D96FF", got.Color)

	// The Inbox can be restyled, just not deleted.
	require.NoError(t, s.UpdateList(ctx, model.DefaultListID, model.ListPatch{Color: model.Ptr("#000000")}))

	assert.ErrorIs(t, s.UpdateList(ctx, l.ID, model.ListPatch{Name: model.Ptr("")}), store.ErrInvalidOperation)
	assert.ErrorIs(t, s.UpdateList(ctx, 99, model.ListPatch{Name: model.Ptr("x")}), store.ErrNotFound)
}

func TestDeleteList_DefaultProtected(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for range 2 {
		err := s.DeleteList(ctx, model.DefaultListID)
		assert.ErrorIs(t, err, store.ErrInvalidOperation)
	}

	inbox, err := s.GetListByID(ctx, model.DefaultListID)
	require.NoError(t, err)
	assert.Equal(t, "Inbox", inbox.Name)
}

func TestDeleteList_ReassignsTasks(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()

	work, err := s.CreateList(ctx, model.TaskList{Name: "Work"})
	require.NoError(t, err)
	home, err := s.CreateList(ctx, model.TaskList{Name: "Home"})
	require.NoError(t, err)

	var moved []*model.Task
	for _, title := range []string{"one", "two", "three"} {
		task, err := s.CreateTask(ctx, model.NewTask{Title: title, ListID: &work.ID})
		require.NoError(t, err)
		moved = append(moved, task)
	}
	require.NoError(t, s.SoftDeleteTask(ctx, moved[2].ID))
	other, err := s.CreateTask(ctx, model.NewTask{Title: "stays", ListID: &home.ID})
	require.NoError(t, err)

	changes, cancel := s.Subscribe(store.CollectionTasks, store.CollectionLists)
	defer cancel()

	require.NoError(t, s.DeleteList(ctx, work.ID))

	for _, task := range moved {
		got, err := s.GetTaskByID(ctx, task.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ListID)
		assert.Equal(t, model.DefaultListID, *got.ListID, "task %q", got.Title)
		assert.True(t, got.UpdatedAt.After(task.UpdatedAt))
	}
	got, err := s.GetTaskByID(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, home.ID, got.EffectiveListID())

	_, err = s.GetListByID(ctx, work.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Both collections are announced by the one commit.
	seen := map[store.Collection][]int64{}
	for len(seen) < 2 {
		c := <-changes
		seen[c.Collection] = c.IDs
	}
	assert.ElementsMatch(t, []int64{moved[0].ID, moved[1].ID, moved[2].ID}, seen[store.CollectionTasks])
	assert.Equal(t, []int64{work.ID}, seen[store.CollectionLists])
}

func TestDeleteList_Missing(t *testing.T) {
	s := testutil.NewTestStore(t)

	assert.ErrorIs(t, s.DeleteList(context.Background(), 404), store.ErrNotFound)
}
