// File: pool/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded circular queue for backlogs of recent items. Writes never block
// and never grow storage: when the queue is full the oldest item is dropped.
// All methods are serialized by one mutex per queue.

package pool

import (
	"sync"

	"github.com/momentics/hioload-udp/api"
)

// Ensure compile-time interface compliance.
var _ api.Ring[any] = (*CircularQueue[any])(nil)

// CircularQueue is a fixed-capacity ring with overwrite-on-full semantics.
//
// Storage has one spare slot so that first and next alone define
// occupancy: first == next is empty, next+1 == first is full.
type CircularQueue[T any] struct {
	mu    sync.Mutex
	items []T
	first int // read cursor
	next  int // write cursor
}

// NewCircularQueue allocates a queue holding up to capacity items.
func NewCircularQueue[T any](capacity int) *CircularQueue[T] {
	if capacity < 1 {
		panic("circular queue capacity must be positive")
	}
	return &CircularQueue[T]{items: make([]T, capacity+1)}
}

// Clone returns an independent copy of q.
func (q *CircularQueue[T]) Clone() *CircularQueue[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := make([]T, len(q.items))
	copy(items, q.items)
	return &CircularQueue[T]{items: items, first: q.first, next: q.next}
}

// First returns the read cursor.
func (q *CircularQueue[T]) First() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.first
}

// Next returns the write cursor.
func (q *CircularQueue[T]) Next() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.next
}

// Len returns the number of queued items.
func (q *CircularQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return (q.next - q.first + len(q.items)) % len(q.items)
}

// Cap returns the maximum number of items held.
func (q *CircularQueue[T]) Cap() int {
	return len(q.items) - 1
}

// Clear drops every item, zeroing slots so references are released.
func (q *CircularQueue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.items)
	q.first = q.next
}

// Enqueue writes item at the tail. If the queue was full, the oldest
// item is evicted and cannot be recovered.
func (q *CircularQueue[T]) Enqueue(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[q.next] = item
	q.next = q.forward(q.next)
	if q.next == q.first {
		var zero T
		q.items[q.first] = zero
		q.first = q.forward(q.first)
	}
}

// Dequeue removes and returns the oldest item. An empty queue yields the
// zero value and is left unchanged.
func (q *CircularQueue[T]) Dequeue() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.first == q.next {
		return zero
	}
	item := q.items[q.first]
	q.items[q.first] = zero
	q.first = q.forward(q.first)
	return item
}

// DequeueLast removes and returns the newest item, undoing the latest
// Enqueue. An item evicted by that Enqueue stays evicted. An empty queue
// yields the zero value and is left unchanged.
func (q *CircularQueue[T]) DequeueLast() T {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if q.first == q.next {
		return zero
	}
	q.next = q.back(q.next)
	item := q.items[q.next]
	q.items[q.next] = zero
	return item
}

// Items returns the queued items, oldest first.
func (q *CircularQueue[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, 0, (q.next-q.first+len(q.items))%len(q.items))
	for i := q.first; i != q.next; i = q.forward(i) {
		out = append(out, q.items[i])
	}
	return out
}

func (q *CircularQueue[T]) forward(i int) int {
	return (i + 1) % len(q.items)
}

func (q *CircularQueue[T]) back(i int) int {
	if i == 0 {
		return len(q.items) - 1
	}
	return i - 1
}
