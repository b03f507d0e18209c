package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/live"
	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/tests/testutil"
)

func TestMutate_AppliesInIssueOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	var ids []int64
	for _, title := range []string{"a", "b", "c"} {
		task, err := s.CreateTask(ctx, model.NewTask{Title: title})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	a, b, c := ids[0], ids[1], ids[2]

	m := New(s, Options{Location: time.UTC})
	defer m.shutdown()

	assert.Nil(t, m.mutate("first", func(ctx context.Context, s store.Store) error {
		time.Sleep(30 * time.Millisecond)
		return s.ReorderTasks(ctx, []int64{b, a, c})
	}))
	assert.Nil(t, m.mutate("second", func(ctx context.Context, s store.Store) error {
		return s.ReorderTasks(ctx, []int64{c, b, a})
	}))

	first, ok := m.writes.Wait()().(live.Done)
	require.True(t, ok)
	assert.Equal(t, mutationDoneMsg{status: "first"}, first.Msg)
	second, ok := m.writes.Wait()().(live.Done)
	require.True(t, ok)
	assert.Equal(t, mutationDoneMsg{status: "second"}, second.Msg)

	tasks, err := s.GetTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	got := make([]int64, len(tasks))
	for i, task := range tasks {
		got[i] = task.ID
	}
	assert.Equal(t, []int64{c, b, a}, got)
}
