// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Defines abstract pooling APIs: leased items and segment accounting.

package api

// Lease is exclusive ownership of one pooled item.
type Lease[T any] interface {
	// Value returns the leased item. It must not be used after Release.
	Value() T

	// Release hands the item back to its pool. Only the first call has effect.
	Release()
}

// PoolStats aggregates segment and checkout accounting for a pool.
type PoolStats struct {
	Segments  int
	Capacity  int
	Available int
	InUse     int
	Checkouts int64
	Returns   int64
	Grows     int64
	Trims     int64
}

// PoolStatsProvider is implemented by pools that expose accounting.
type PoolStatsProvider interface {
	Stats() PoolStats
}
