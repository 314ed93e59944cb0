// File: cache/entry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Cache entries and the deadline-ordered index used by the purge sweep.

package cache

import (
	"container/heap"
	"time"
)

// Entry is a snapshot of one cached item.
type Entry[K comparable, V any] struct {
	Key      K
	Value    V
	Deadline time.Time
	// Window is the sliding window; zero for absolute expiration.
	Window time.Duration
}

// Sliding reports whether the entry uses sliding expiration.
func (e Entry[K, V]) Sliding() bool {
	return e.Window > 0
}

type entry[K comparable, V any] struct {
	key      K
	value    V
	deadline time.Time
	window   time.Duration
	index    int // position in expirationHeap, -1 once removed
}

// accessed pushes a sliding deadline forward. Absolute entries are unchanged.
func (e *entry[K, V]) accessed(now time.Time) bool {
	if e.window <= 0 {
		return false
	}
	e.deadline = now.Add(e.window)
	return true
}

func (e *entry[K, V]) snapshot() Entry[K, V] {
	return Entry[K, V]{Key: e.key, Value: e.value, Deadline: e.deadline, Window: e.window}
}

// expirationHeap is a min-heap of entries keyed by deadline. It keeps each
// entry's index current so refreshed entries can be re-sifted in place.
type expirationHeap[K comparable, V any] []*entry[K, V]

var _ heap.Interface = (*expirationHeap[string, int])(nil)

func (h expirationHeap[K, V]) Len() int { return len(h) }

func (h expirationHeap[K, V]) Less(i, j int) bool {
	return h[i].deadline.Before(h[j].deadline)
}

func (h expirationHeap[K, V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expirationHeap[K, V]) Push(x any) {
	e := x.(*entry[K, V])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *expirationHeap[K, V]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// peek returns the entry with the earliest deadline, or nil.
func (h expirationHeap[K, V]) peek() *entry[K, V] {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
