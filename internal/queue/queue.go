package queue

import (
	"sync"
	"time"
)

// Item is one transcript waiting to be merged into the minutes.
type Item struct {
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Reason     string    `json:"reason"`
}

// Store persists the whole queue as a unit.
type Store interface {
	Load() ([]Item, error)
	Save(items []Item) error
}

// Queue is an ordered, append-only retry queue. Items leave it only through
// TakeAll; there is no way to remove a single item.
type Queue struct {
	mu    sync.Mutex
	items []Item
	store Store
}

// Open reconstructs a queue from the last snapshot in store. A nil store
// gives a memory-only queue.
func Open(store Store) (*Queue, error) {
	q := &Queue{store: store}
	if store == nil {
		return q, nil
	}
	items, err := store.Load()
	if err != nil {
		return q, err
	}
	q.items = items
	return q, nil
}

// Push appends item and writes the snapshot. The item is kept in memory even
// when the write fails; the returned error is only for reporting.
func (q *Queue) Push(item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if item.EnqueuedAt.IsZero() {
		item.EnqueuedAt = time.Now()
	}
	q.items = append(q.items, item)
	return q.saveLocked()
}

// TakeAll empties the queue, writes the empty snapshot, and returns what it
// held in insertion order.
func (q *Queue) TakeAll() ([]Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items, q.saveLocked()
}

// Persist rewrites the current snapshot without changing the contents.
func (q *Queue) Persist() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.saveLocked()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a copy of the queued items, oldest first.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Item, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) saveLocked() error {
	if q.store == nil {
		return nil
	}
	snapshot := make([]Item, len(q.items))
	copy(snapshot, q.items)
	return q.store.Save(snapshot)
}
