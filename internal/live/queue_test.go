package live

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/store"
	"github.com/nhle/taskflow/tests/testutil"
)

func waitDone(t *testing.T, q *Queue) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- q.Wait()() }()
	select {
	case msg := <-ch:
		d, ok := msg.(Done)
		require.True(t, ok, "got %T", msg)
		return d.Msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job")
	}
	return nil
}

func TestQueue_RunsInPushOrder(t *testing.T) {
	q := NewQueue(context.Background())
	defer q.Close()

	var (
		mu  sync.Mutex
		ran []int
	)
	job := func(n int, delay time.Duration) func() tea.Msg {
		return func() tea.Msg {
			time.Sleep(delay)
			mu.Lock()
			ran = append(ran, n)
			mu.Unlock()
			return n
		}
	}
	q.Push(job(1, 30*time.Millisecond))
	q.Push(job(2, 0))
	q.Push(job(3, 10*time.Millisecond))

	assert.Equal(t, 1, waitDone(t, q))
	assert.Equal(t, 2, waitDone(t, q))
	assert.Equal(t, 3, waitDone(t, q))
	mu.Lock()
	assert.Equal(t, []int{1, 2, 3}, ran)
	mu.Unlock()
}

func TestQueue_LastReorderWins(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	var ids []int64
	for _, title := range []string{"a", "b", "c"} {
		task, err := s.CreateTask(ctx, model.NewTask{Title: title})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	a, b, c := ids[0], ids[1], ids[2]

	q := NewQueue(ctx)
	defer q.Close()

	// The first reorder is slow to start; it must still commit first.
	q.Push(func() tea.Msg {
		time.Sleep(30 * time.Millisecond)
		return s.ReorderTasks(ctx, []int64{b, a, c})
	})
	q.Push(func() tea.Msg {
		return s.ReorderTasks(ctx, []int64{c, b, a})
	})
	assert.Nil(t, waitDone(t, q))
	assert.Nil(t, waitDone(t, q))

	tasks, err := s.GetTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	got := make([]int64, len(tasks))
	for i, task := range tasks {
		got[i] = task.ID
	}
	assert.Equal(t, []int64{c, b, a}, got)
}

func TestQueue_CloseRunsPendingJobs(t *testing.T) {
	q := NewQueue(context.Background())

	var (
		mu  sync.Mutex
		ran int
	)
	for i := 0; i < 5; i++ {
		q.Push(func() tea.Msg {
			time.Sleep(time.Millisecond)
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
	}
	q.Close()
	q.Push(func() tea.Msg {
		mu.Lock()
		ran += 100
		mu.Unlock()
		return nil
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, ran)
}
