package live

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Done carries the message a queued job returned. It is what Queue.Wait
// delivers, so the receiver can tell queue results apart and wait again.
type Done struct {
	Msg tea.Msg
}

// Queue runs store mutations one at a time, in the order they were pushed.
// Bubble Tea runs every tea.Cmd on its own goroutine, so writes returned as
// separate commands can commit in any order; pushing them here instead keeps
// them in issue order.
type Queue struct {
	mu      sync.Mutex
	pending []func() tea.Msg
	closed  bool

	wake     chan struct{}
	results  chan Done
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewQueue starts the worker. It stops when ctx is done or Close is called,
// after running whatever was already pushed.
func NewQueue(ctx context.Context) *Queue {
	q := &Queue{
		wake:    make(chan struct{}, 1),
		results: make(chan Done, 16),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go q.run(ctx)
	return q
}

// Push appends job to the queue. It never blocks. Jobs pushed after Close
// are dropped.
func (q *Queue) Push(job func() tea.Msg) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.pending = append(q.pending, job)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Wait returns a tea.Cmd that delivers the next job result as a Done.
// Call it again after handling each Done to keep listening.
func (q *Queue) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case d := <-q.results:
			return d
		case <-q.done:
			return nil
		}
	}
}

// Close stops accepting jobs, lets the worker finish the ones already
// queued and waits for it to exit.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.stopOnce.Do(func() { close(q.stopCh) })
	<-q.done
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)
	for {
		job, ok := q.next(ctx)
		if !ok {
			return
		}
		msg := job()
		select {
		case q.results <- Done{Msg: msg}:
		case <-q.stopCh:
		case <-ctx.Done():
		}
	}
}

// next pops the oldest job, blocking until one arrives. It reports false
// once the queue is stopped and empty.
func (q *Queue) next(ctx context.Context) (func() tea.Msg, bool) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			job := q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return job, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-q.stopCh:
			return nil, false
		case <-ctx.Done():
			return nil, false
		}
	}
}
