package store

import (
	"slices"
	"sync"
	"time"
)

// Collection names a record collection in the store.
type Collection string

const (
	CollectionTasks Collection = "tasks"
	CollectionLists Collection = "lists"
	CollectionTags  Collection = "tags"
)

// Change is published after a transaction commits. IDs lists the records of
// Collection the transaction touched.
type Change struct {
	Collection Collection
	IDs        []int64
	At         time.Time
}

// changeSet accumulates touched ids during a transaction.
type changeSet struct {
	ids   map[Collection][]int64
	order []Collection
}

func (cs *changeSet) add(c Collection, ids ...int64) {
	if cs.ids == nil {
		cs.ids = make(map[Collection][]int64)
	}
	if _, ok := cs.ids[c]; !ok {
		cs.order = append(cs.order, c)
	}
	for _, id := range ids {
		if !slices.Contains(cs.ids[c], id) {
			cs.ids[c] = append(cs.ids[c], id)
		}
	}
}

func (cs *changeSet) changes(at time.Time) []Change {
	out := make([]Change, 0, len(cs.order))
	for _, c := range cs.order {
		out = append(out, Change{Collection: c, IDs: cs.ids[c], At: at})
	}
	return out
}

// subscriberBuffer bounds how many undelivered changes a subscriber may hold.
const subscriberBuffer = 16

type subscriber struct {
	ch          chan Change
	collections []Collection
}

func (s subscriber) wants(c Collection) bool {
	return len(s.collections) == 0 || slices.Contains(s.collections, c)
}

// hub fans committed changes out to subscribers.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]subscriber
}

func newHub() *hub {
	return &hub{subs: make(map[int]subscriber)}
}

func (h *hub) subscribe(collections []Collection) (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	sub := subscriber{
		ch:          make(chan Change, subscriberBuffer),
		collections: slices.Clone(collections),
	}
	h.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; !ok {
				return // already closed by closeAll
			}
			delete(h.subs, id)
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// publish never blocks. A subscriber whose buffer is full already has an
// undelivered change pending, so dropping the new one loses no wake-up.
func (h *hub) publish(changes []Change) {
	if len(changes) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range changes {
		for _, sub := range h.subs {
			if !sub.wants(c.Collection) {
				continue
			}
			select {
			case sub.ch <- c:
			default:
			}
		}
	}
}

// closeAll ends every subscription; used when the store shuts down.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}
