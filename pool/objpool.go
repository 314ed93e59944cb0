// File: pool/objpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Segmented object pool. Items are allocated a segment at a time, leased
// to exactly one caller, and handed back for reuse. Idle segments beyond
// the configured minimum are released by Trim.

package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"
	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/internal/logging"
)

const (
	DefaultItemsPerSegment = 16
	DefaultMinSegments     = 1
	DefaultIdleTimeout     = 5 * time.Minute
)

// Config controls segment sizing and trimming.
type Config struct {
	ItemsPerSegment int           // Items allocated per segment
	MinSegments     int           // Segments kept warm, never trimmed
	AutoTrim        bool          // Run Trim periodically in the background
	IdleTimeout     time.Duration // Idle time before an extra segment may be released
	Logger          *zerolog.Logger
}

// DefaultConfig returns the packet-pool defaults: 16 items per segment,
// one warm segment, auto trim after five idle minutes.
func DefaultConfig() Config {
	return Config{
		ItemsPerSegment: DefaultItemsPerSegment,
		MinSegments:     DefaultMinSegments,
		AutoTrim:        true,
		IdleTimeout:     DefaultIdleTimeout,
	}
}

// Resetter is implemented by items that clear their state before reuse.
type Resetter interface {
	Reset()
}

// Pool is a concurrency-safe segmented object pool.
type Pool[T any] struct {
	cfg     Config
	newItem func() T
	log     zerolog.Logger

	mu       sync.Mutex
	segments []*segment[T]
	free     *queue.Queue // available *slot[T], FIFO

	_         cpu.CacheLinePad
	checkouts atomic.Int64
	returns   atomic.Int64
	grows     atomic.Int64
	trims     atomic.Int64
	_         cpu.CacheLinePad

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Ensure compile-time interface compliance.
var _ api.PoolStatsProvider = (*Pool[int])(nil)

// New creates a pool whose items are produced by newItem. MinSegments
// segments are allocated immediately; with AutoTrim a trimming goroutine
// runs until Close.
func New[T any](cfg Config, newItem func() T) *Pool[T] {
	if newItem == nil {
		panic("pool: nil item factory")
	}
	if cfg.ItemsPerSegment <= 0 {
		cfg.ItemsPerSegment = DefaultItemsPerSegment
	}
	if cfg.MinSegments < 0 {
		cfg.MinSegments = 0
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}

	p := &Pool[T]{
		cfg:     cfg,
		newItem: newItem,
		log:     logging.Or(cfg.Logger, "pool"),
		free:    queue.New(),
	}
	p.mu.Lock()
	for i := 0; i < cfg.MinSegments; i++ {
		p.grow(time.Now())
	}
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	if cfg.AutoTrim {
		p.wg.Add(1)
		go p.trimLoop(ctx)
	}
	return p
}

// Checkout leases an available item, allocating a new segment when none
// is available. It never blocks on other callers' leases.
func (p *Pool[T]) Checkout() Lease[T] {
	now := time.Now()
	p.mu.Lock()
	if p.free.Length() == 0 {
		p.grow(now)
	}
	s := p.free.Remove().(*slot[T])
	s.leased = true
	s.gen++
	s.seg.out++
	s.seg.lastUsed = now
	gen := s.gen
	p.mu.Unlock()

	p.checkouts.Add(1)
	return Lease[T]{pool: p, slot: s, gen: gen}
}

// put returns a slot if gen still identifies the current lease.
func (p *Pool[T]) put(s *slot[T], gen uint64) {
	p.mu.Lock()
	if !s.leased || s.gen != gen {
		p.mu.Unlock()
		return
	}
	if r, ok := any(s.item).(Resetter); ok {
		r.Reset()
	}
	s.leased = false
	s.seg.out--
	s.seg.lastUsed = time.Now()
	p.free.Add(s)
	p.mu.Unlock()

	p.returns.Add(1)
}

// grow allocates one segment and makes its items available. Caller holds mu.
func (p *Pool[T]) grow(now time.Time) {
	seg := newSegment(p.cfg.ItemsPerSegment, p.newItem, now)
	p.segments = append(p.segments, seg)
	for _, s := range seg.slots {
		p.free.Add(s)
	}
	p.grows.Add(1)
	p.log.Debug().
		Int("segments", len(p.segments)).
		Int("items_per_segment", p.cfg.ItemsPerSegment).
		Msg("pool grew")
}

// Trim releases segments beyond MinSegments whose items are all available
// and that have been idle for at least IdleTimeout. It returns the number
// of segments released.
func (p *Pool[T]) Trim() int {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	excess := len(p.segments) - p.cfg.MinSegments
	if excess <= 0 {
		return 0
	}
	released := 0
	kept := p.segments[:0]
	// Newest segments are released first so the warm ones stay put.
	for i := len(p.segments) - 1; i >= 0; i-- {
		seg := p.segments[i]
		if released < excess && seg.idle(now, p.cfg.IdleTimeout) {
			seg.retired = true
			released++
		}
	}
	if released == 0 {
		return 0
	}
	for _, seg := range p.segments {
		if !seg.retired {
			kept = append(kept, seg)
		}
	}
	for i := len(kept); i < len(p.segments); i++ {
		p.segments[i] = nil
	}
	p.segments = kept

	for n := p.free.Length(); n > 0; n-- {
		s := p.free.Remove().(*slot[T])
		if !s.seg.retired {
			p.free.Add(s)
		}
	}

	p.trims.Add(int64(released))
	p.log.Debug().
		Int("released", released).
		Int("segments", len(p.segments)).
		Msg("pool trimmed")
	return released
}

// trimLoop calls Trim every half idle window until ctx is cancelled.
func (p *Pool[T]) trimLoop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.cfg.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Trim()
		case <-ctx.Done():
			return
		}
	}
}

// Stats returns a snapshot of segment and lease accounting.
func (p *Pool[T]) Stats() api.PoolStats {
	p.mu.Lock()
	segments := len(p.segments)
	available := p.free.Length()
	p.mu.Unlock()

	capacity := segments * p.cfg.ItemsPerSegment
	return api.PoolStats{
		Segments:  segments,
		Capacity:  capacity,
		Available: available,
		InUse:     capacity - available,
		Checkouts: p.checkouts.Load(),
		Returns:   p.returns.Load(),
		Grows:     p.grows.Load(),
		Trims:     p.trims.Load(),
	}
}

// Close stops background trimming. Leases stay valid and the pool keeps
// serving checkouts; its memory goes away with the last reference.
func (p *Pool[T]) Close() {
	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}

// Lease is exclusive ownership of one pooled item. The zero Lease holds
// nothing and its Release is a no-op.
type Lease[T any] struct {
	pool *Pool[T]
	slot *slot[T]
	gen  uint64
}

// Ensure compile-time interface compliance.
var _ api.Lease[int] = Lease[int]{}

// Value returns the leased item, or the zero T for the zero Lease.
func (l Lease[T]) Value() T {
	if l.slot == nil {
		var zero T
		return zero
	}
	return l.slot.item
}

// Release returns the item to its pool. Calls after the first, including
// calls on copies of the Lease, are ignored.
func (l Lease[T]) Release() {
	if l.pool == nil {
		return
	}
	l.pool.put(l.slot, l.gen)
}
