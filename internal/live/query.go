// Package live keeps query results current by re-running them after every
// committed store transaction that touches the collections they read. Its
// Queue is the write side: mutations run one at a time in issue order.
package live

import (
	"context"
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskflow/internal/store"
)

// Source is the change feed a Query listens to. *store.SQLiteStore
// satisfies it.
type Source interface {
	Subscribe(collections ...store.Collection) (<-chan store.Change, func())
}

// FetchFunc computes a query result from the store.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result is one computed value of a Query. It doubles as a tea.Msg.
// Seq increases by one per fetch.
type Result[T any] struct {
	Name  string
	Value T
	Err   error
	Seq   uint64
}

// Query re-runs its fetch function whenever the store reports a change.
// Only the newest undelivered result is kept: a slow reader skips stale
// values but never misses the latest one.
type Query[T any] struct {
	name     string
	fetch    FetchFunc[T]
	resultCh chan Result[T]
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Watch subscribes to src, runs fetch once immediately and again after every
// change to one of collections (all collections if none given). The query
// stops when ctx is done, the store closes, or Close is called.
func Watch[T any](
	ctx context.Context,
	name string,
	src Source,
	fetch FetchFunc[T],
	collections ...store.Collection,
) *Query[T] {
	q := &Query[T]{
		name:     name,
		fetch:    fetch,
		resultCh: make(chan Result[T], 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	// Subscribe before the first fetch so no commit falls in between.
	changes, cancel := src.Subscribe(collections...)
	go q.run(ctx, changes, cancel)
	return q
}

// Results returns the channel of computed values. It is closed when the
// query stops.
func (q *Query[T]) Results() <-chan Result[T] {
	return q.resultCh
}

// Wait returns a tea.Cmd that waits for the next result. Call it again
// after handling each Result to keep listening.
func (q *Query[T]) Wait() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-q.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// Close stops the query and waits for its goroutine to exit.
func (q *Query[T]) Close() {
	q.stopOnce.Do(func() { close(q.stopCh) })
	<-q.done
}

func (q *Query[T]) run(ctx context.Context, changes <-chan store.Change, cancel func()) {
	defer close(q.done)
	defer close(q.resultCh)
	defer cancel()

	var seq uint64
	refresh := func() {
		seq++
		value, err := q.fetch(ctx)
		if err != nil {
			log.Printf("live query %s: %v", q.name, err)
		}
		q.send(Result[T]{Name: q.name, Value: value, Err: err, Seq: seq})
	}

	refresh()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ctx.Done():
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			// Fold any changes that piled up during the last fetch into
			// this refresh.
			drained := false
			for !drained {
				select {
				case _, ok := <-changes:
					if !ok {
						return
					}
				default:
					drained = true
				}
			}
			refresh()
		}
	}
}

// send replaces any undelivered result with r.
func (q *Query[T]) send(r Result[T]) {
	for {
		select {
		case q.resultCh <- r:
			return
		case <-q.stopCh:
			return
		default:
		}
		select {
		case <-q.resultCh:
		default:
		}
	}
}
