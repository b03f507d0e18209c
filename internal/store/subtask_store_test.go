package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/tests/testutil"
)

func TestSubtasks(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	task := createTasks(t, s, "trip")[0]

	pack, err := s.AddSubtask(ctx, task.ID, " pack ")
	require.NoError(t, err)
	book, err := s.AddSubtask(ctx, task.ID, "book hotel")
	require.NoError(t, err)

	_, err = uuid.Parse(pack.ID)
	assert.NoError(t, err)
	assert.Equal(t, "pack", pack.Title)
	assert.NotEqual(t, pack.ID, book.ID)

	require.NoError(t, s.ToggleSubtask(ctx, task.ID, book.ID))
	due := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetSubtaskDueDate(ctx, task.ID, pack.ID, &due))

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Subtasks, 2)
	assert.Equal(t, pack.ID, got.Subtasks[0].ID)
	assert.False(t, got.Subtasks[0].IsCompleted)
	require.NotNil(t, got.Subtasks[0].DueDate)
	assert.True(t, got.Subtasks[0].DueDate.Equal(due))
	assert.True(t, got.Subtasks[1].IsCompleted)

	done, total, percent := got.SubtaskProgress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)
	assert.Equal(t, 50, percent)

	require.NoError(t, s.SetSubtaskDueDate(ctx, task.ID, pack.ID, nil))
	require.NoError(t, s.DeleteSubtask(ctx, task.ID, book.ID))

	got, err = s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Subtasks, 1)
	assert.Equal(t, pack.ID, got.Subtasks[0].ID)
	assert.Nil(t, got.Subtasks[0].DueDate)
}

func TestSubtasks_Errors(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	task := createTasks(t, s, "host")[0]

	_, err := s.AddSubtask(ctx, task.ID, "  ")
	assert.ErrorIs(t, err, store.ErrInvalidOperation)

	_, err = s.AddSubtask(ctx, 999, "orphan")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, s.ToggleSubtask(ctx, task.ID, "missing"), store.ErrNotFound)
	assert.ErrorIs(t, s.SetSubtaskDueDate(ctx, task.ID, "missing", nil), store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteSubtask(ctx, 999, "missing"), store.ErrNotFound)
}

func TestDeleteSubtask_MissingIsNoop(t *testing.T) {
	s, _ := testutil.NewClockedStore(t)
	ctx := context.Background()
	task := createTasks(t, s, "host")[0]

	changes, cancel := s.Subscribe(store.CollectionTasks)
	defer cancel()

	require.NoError(t, s.DeleteSubtask(ctx, task.ID, "missing"))

	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.UpdatedAt.Equal(task.UpdatedAt))
	select {
	case c := <-changes:
		t.Fatalf("unexpected change %+v", c)
	default:
	}
}
