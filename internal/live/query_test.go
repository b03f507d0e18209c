package live

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

func next[T any](t *testing.T, q *Query[T]) Result[T] {
	t.Helper()
	select {
	case r, ok := <-q.Results():
		require.True(t, ok, "query stopped")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
	return Result[T]{}
}

func countTasks(s store.Store) FetchFunc[int] {
	return func(ctx context.Context) (int, error) {
		tasks, err := s.GetTasks(ctx, store.TaskFilter{})
		return len(tasks), err
	}
}

func TestWatch_RefreshesAfterCommit(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	q := Watch(ctx, "count", s, countTasks(s), store.CollectionTasks)
	defer q.Close()

	first := next(t, q)
	assert.Equal(t, "count", first.Name)
	assert.Equal(t, 0, first.Value)
	assert.NoError(t, first.Err)
	assert.Equal(t, uint64(1), first.Seq)

	_, err := s.CreateTask(ctx, model.NewTask{Title: "one"})
	require.NoError(t, err)

	r := next(t, q)
	assert.Equal(t, 1, r.Value)
	assert.Greater(t, r.Seq, first.Seq)
}

func TestWatch_IgnoresOtherCollections(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	q := Watch(ctx, "count", s, countTasks(s), store.CollectionTasks)
	defer q.Close()
	next(t, q)

	_, err := s.CreateList(ctx, model.TaskList{Name: "Work"})
	require.NoError(t, err)

	select {
	case r := <-q.Results():
		t.Fatalf("unexpected refresh %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatch_LatestResultWins(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	q := Watch(ctx, "count", s, countTasks(s), store.CollectionTasks)
	defer q.Close()

	// Nobody reads while three commits land.
	for _, title := range []string{"a", "b", "c"} {
		_, err := s.CreateTask(ctx, model.NewTask{Title: title})
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool {
		select {
		case r := <-q.Results():
			return r.Value == 3
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWait_ReturnsResultMsg(t *testing.T) {
	s := testutil.NewTestStore(t)

	q := Watch(context.Background(), "count", s, countTasks(s))
	defer q.Close()

	msg := q.Wait()()
	r, ok := msg.(Result[int])
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, "count", r.Name)
}

func TestClose_StopsQuery(t *testing.T) {
	s := testutil.NewTestStore(t)

	q := Watch(context.Background(), "count", s, countTasks(s))
	next(t, q)
	q.Close()
	q.Close()

	_, ok := <-q.Results()
	assert.False(t, ok)
	assert.Nil(t, q.Wait()())
}

func TestWatch_StopsWithContext(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	q := Watch(ctx, "count", s, countTasks(s))
	next(t, q)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-q.Results():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
	q.Close()
}
