// Package api
// Author: momentics@gmail.com
//
// Bounded ring contract for cross-goroutine backlogs.

package api

// Ring is a fixed-capacity ring that overwrites its oldest item when full.
type Ring[T any] interface {
	// Enqueue adds an item, evicting the oldest one if the ring is full.
	Enqueue(item T)
	// Dequeue removes the oldest item, or returns the zero value if empty.
	Dequeue() T
	// DequeueLast removes the newest item, or returns the zero value if empty.
	DequeueLast() T
	// Clear drops every item without reallocating storage.
	Clear()
	// Len returns current number of items.
	Len() int
	// Cap returns ring capacity.
	Cap() int
}
