// File: pool/segment.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Segment bookkeeping for Pool. A segment is a batch of items allocated
// together and released together.

package pool

import "time"

// segment owns a fixed batch of slots. Fields are guarded by Pool.mu.
type segment[T any] struct {
	slots    []*slot[T]
	out      int // slots currently leased
	lastUsed time.Time
	retired  bool
}

// slot binds one item to its segment and tracks the current lease.
type slot[T any] struct {
	seg    *segment[T]
	item   T
	leased bool
	gen    uint64 // bumped on every checkout; stale leases compare unequal
}

func newSegment[T any](n int, newItem func() T, now time.Time) *segment[T] {
	seg := &segment[T]{
		slots:    make([]*slot[T], n),
		lastUsed: now,
	}
	for i := range seg.slots {
		seg.slots[i] = &slot[T]{seg: seg, item: newItem()}
	}
	return seg
}

// idle reports whether every slot is available and none moved for window.
func (s *segment[T]) idle(now time.Time, window time.Duration) bool {
	return s.out == 0 && now.Sub(s.lastUsed) >= window
}
