package offline

import (
	"container/list"
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned by Enqueue when MaxSize entries are waiting.
	ErrQueueFull = errors.New("offline: queue full")
	// ErrClosed is returned by Enqueue after Close and used to reject
	// entries still waiting at Close.
	ErrClosed = errors.New("offline: queue closed")
)

// Entry pairs a queued item with its completion handle.
type Entry[T, R any] struct {
	Item   T
	Result *Future[R]
}

// Queue is a mutex-guarded FIFO of entries.
type Queue[T, R any] struct {
	mu      sync.Mutex
	list    *list.List
	maxSize int
	closed  bool
}

// NewQueue creates a queue holding at most maxSize entries; 0 means unbounded.
func NewQueue[T, R any](maxSize int) *Queue[T, R] {
	return &Queue[T, R]{list: list.New(), maxSize: maxSize}
}

// Enqueue appends item and returns the pending Future for it.
func (q *Queue[T, R]) Enqueue(item T) (*Future[R], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrClosed
	}
	if q.maxSize > 0 && q.list.Len() >= q.maxSize {
		return nil, ErrQueueFull
	}

	f := NewFuture[R]()
	q.list.PushBack(Entry[T, R]{Item: item, Result: f})
	return f, nil
}

// Dequeue removes and returns the oldest entry. ok is false when empty.
func (q *Queue[T, R]) Dequeue() (Entry[T, R], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	front := q.list.Front()
	if front == nil {
		return Entry[T, R]{}, false
	}
	q.list.Remove(front)
	return front.Value.(Entry[T, R]), true
}

// Remove takes the entry completed through f out of the queue without
// resolving it. It reports false when the entry was already dequeued.
func (q *Queue[T, R]) Remove(f *Future[R]) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for e := q.list.Front(); e != nil; e = e.Next() {
		if e.Value.(Entry[T, R]).Result == f {
			q.list.Remove(e)
			return true
		}
	}
	return false
}

// Len returns the number of waiting entries.
func (q *Queue[T, R]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.list.Len()
}

// Items returns the waiting items in queue order.
func (q *Queue[T, R]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]T, 0, q.list.Len())
	for e := q.list.Front(); e != nil; e = e.Next() {
		items = append(items, e.Value.(Entry[T, R]).Item)
	}
	return items
}

// Close stops accepting entries and rejects every waiting one with err
// (ErrClosed when nil). It returns how many entries were rejected.
func (q *Queue[T, R]) Close(err error) int {
	if err == nil {
		err = ErrClosed
	}

	q.mu.Lock()
	q.closed = true
	pending := make([]Entry[T, R], 0, q.list.Len())
	for e := q.list.Front(); e != nil; e = e.Next() {
		pending = append(pending, e.Value.(Entry[T, R]))
	}
	q.list.Init()
	q.mu.Unlock()

	for _, entry := range pending {
		entry.Result.Reject(err)
	}
	return len(pending)
}
