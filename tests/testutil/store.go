package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/nhle/taskflow/internal/store"
)

// Epoch is the instant a Clock starts at: a Wednesday noon in UTC.
var Epoch = time.Date(2024, time.March, 13, 12, 0, 0, 0, time.UTC)

// Clock is a manual clock for stores under test. Each Now call advances it
// by Step so successive writes get distinct timestamps.
type Clock struct {
	mu   sync.Mutex
	t    time.Time
	Step time.Duration
}

// NewClock returns a clock at Epoch that advances one second per read.
func NewClock() *Clock {
	return &Clock{t: Epoch, Step: time.Second}
}

// Now returns the current instant and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(c.Step)
	return now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T, opts ...store.Option) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:", opts...)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewClockedStore is NewTestStore driven by a fresh Clock.
func NewClockedStore(t *testing.T) (*store.SQLiteStore, *Clock) {
	t.Helper()
	c := NewClock()
	return NewTestStore(t, store.WithClock(c.Now)), c
}
