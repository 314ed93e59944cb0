// File: cache/cache.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExpiringCache implementation.

package cache

import (
	"container/heap"
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/internal/logging"
)

const (
	DefaultPurgeInterval = time.Second
	DefaultLockWait      = 5 * time.Second
)

// Config controls purge cadence and lock waits.
type Config struct {
	PurgeInterval time.Duration // Time between purge cycles
	LockWait      time.Duration // Longest wait for the cache lock
	Logger        *zerolog.Logger
}

// DefaultConfig returns a one second purge interval and a five second lock wait.
func DefaultConfig() Config {
	return Config{
		PurgeInterval: DefaultPurgeInterval,
		LockWait:      DefaultLockWait,
	}
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries       int
	Hits          int64
	Misses        int64
	Purged        int64 // entries removed by purge cycles
	PurgeCycles   int64
	SkippedPurges int64 // cycles abandoned on lock timeout or overlap
}

// ExpiringCache maps keys to values that disappear after a deadline.
//
// The forward index and the deadline heap always hold the same entries and
// are only touched while lock is held. Expired entries remain members until
// a purge cycle or Remove drops them.
type ExpiringCache[K comparable, V any] struct {
	cfg Config
	log zerolog.Logger

	lock    *timedLock
	index   map[K]*entry[K, V]
	expires expirationHeap[K, V]
	count   atomic.Int64

	purging sync.Mutex

	hits    atomic.Int64
	misses  atomic.Int64
	purged  atomic.Int64
	cycles  atomic.Int64
	skipped atomic.Int64

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a cache and starts its purge goroutine. Call Close to stop it.
func New[K comparable, V any](cfg Config) *ExpiringCache[K, V] {
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = DefaultPurgeInterval
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = DefaultLockWait
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &ExpiringCache[K, V]{
		cfg:    cfg,
		log:    logging.Or(cfg.Logger, "cache"),
		lock:   newTimedLock(cfg.LockWait),
		index:  make(map[K]*entry[K, V]),
		ctx:    ctx,
		cancel: cancel,
	}
	c.wg.Add(1)
	go c.purgeLoop()
	return c
}

// Add inserts value under key with an absolute ttl. It returns false when
// key is already present; the stored value is left untouched.
func (c *ExpiringCache[K, V]) Add(key K, value V, ttl time.Duration) (bool, error) {
	return c.add(key, value, ttl, 0)
}

// AddSliding inserts value under key with a sliding window. It returns
// false when key is already present.
func (c *ExpiringCache[K, V]) AddSliding(key K, value V, window time.Duration) (bool, error) {
	if err := checkWindow(window); err != nil {
		return false, err
	}
	return c.add(key, value, 0, window)
}

func (c *ExpiringCache[K, V]) add(key K, value V, ttl, window time.Duration) (bool, error) {
	if err := c.lock.lock(context.Background()); err != nil {
		return false, err
	}
	defer c.lock.unlock()
	if _, ok := c.index[key]; ok {
		return false, nil
	}
	c.insert(key, value, ttl, window, time.Now())
	return true, nil
}

// AddOrUpdate stores value with an absolute ttl, replacing any existing
// entry and its policy. added is true only when key was new.
func (c *ExpiringCache[K, V]) AddOrUpdate(key K, value V, ttl time.Duration) (added bool, err error) {
	return c.upsert(key, value, ttl, 0)
}

// AddOrUpdateSliding is AddOrUpdate with a sliding window.
func (c *ExpiringCache[K, V]) AddOrUpdateSliding(key K, value V, window time.Duration) (added bool, err error) {
	if err := checkWindow(window); err != nil {
		return false, err
	}
	return c.upsert(key, value, 0, window)
}

func (c *ExpiringCache[K, V]) upsert(key K, value V, ttl, window time.Duration) (bool, error) {
	if err := c.lock.lock(context.Background()); err != nil {
		return false, err
	}
	defer c.lock.unlock()
	now := time.Now()
	if e, ok := c.index[key]; ok {
		c.reset(e, value, ttl, window, now)
		return false, nil
	}
	c.insert(key, value, ttl, window, now)
	return true, nil
}

// Update replaces the value of an existing entry, keeping its policy. A
// sliding entry counts the update as an access. It returns false when key
// is absent.
func (c *ExpiringCache[K, V]) Update(key K, value V) (bool, error) {
	if err := c.lock.lock(context.Background()); err != nil {
		return false, err
	}
	defer c.lock.unlock()
	e, ok := c.index[key]
	if !ok {
		return false, nil
	}
	e.value = value
	c.touch(e, time.Now())
	return true, nil
}

// UpdateTTL replaces an existing entry with value under an absolute ttl.
func (c *ExpiringCache[K, V]) UpdateTTL(key K, value V, ttl time.Duration) (bool, error) {
	return c.replace(key, value, ttl, 0)
}

// UpdateSliding replaces an existing entry with value under a sliding window.
func (c *ExpiringCache[K, V]) UpdateSliding(key K, value V, window time.Duration) (bool, error) {
	if err := checkWindow(window); err != nil {
		return false, err
	}
	return c.replace(key, value, 0, window)
}

func (c *ExpiringCache[K, V]) replace(key K, value V, ttl, window time.Duration) (bool, error) {
	if err := c.lock.lock(context.Background()); err != nil {
		return false, err
	}
	defer c.lock.unlock()
	e, ok := c.index[key]
	if !ok {
		return false, nil
	}
	c.reset(e, value, ttl, window, time.Now())
	return true, nil
}

// TryGet returns the value stored under key. Reading a sliding entry
// pushes its deadline forward.
func (c *ExpiringCache[K, V]) TryGet(key K) (V, bool, error) {
	var zero V
	if err := c.lock.lock(context.Background()); err != nil {
		return zero, false, err
	}
	defer c.lock.unlock()
	e, ok := c.index[key]
	if !ok {
		c.misses.Add(1)
		return zero, false, nil
	}
	c.hits.Add(1)
	c.touch(e, time.Now())
	return e.value, true, nil
}

// Get is TryGet that reports a missing key as api.ErrKeyNotFound.
func (c *ExpiringCache[K, V]) Get(key K) (V, error) {
	v, ok, err := c.TryGet(key)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, api.NewError(api.ErrCodeNotFound, "key not found in the cache").
			WithContext("key", key)
	}
	return v, nil
}

// Contains reports whether key is a member. It does not count as an access.
func (c *ExpiringCache[K, V]) Contains(key K) (bool, error) {
	if err := c.lock.lock(context.Background()); err != nil {
		return false, err
	}
	defer c.lock.unlock()
	_, ok := c.index[key]
	return ok, nil
}

// Remove deletes key and reports whether it was present.
func (c *ExpiringCache[K, V]) Remove(key K) (bool, error) {
	if err := c.lock.lock(context.Background()); err != nil {
		return false, err
	}
	defer c.lock.unlock()
	e, ok := c.index[key]
	if !ok {
		return false, nil
	}
	c.drop(e)
	return true, nil
}

// Clear removes every entry.
func (c *ExpiringCache[K, V]) Clear() error {
	if err := c.lock.lock(context.Background()); err != nil {
		return err
	}
	defer c.lock.unlock()
	clear(c.index)
	clear(c.expires)
	c.expires = c.expires[:0]
	c.count.Store(0)
	return nil
}

// Len returns the number of entries without taking the lock.
func (c *ExpiringCache[K, V]) Len() int {
	return int(c.count.Load())
}

// Keys returns the current keys in no particular order.
func (c *ExpiringCache[K, V]) Keys() ([]K, error) {
	if err := c.lock.lock(context.Background()); err != nil {
		return nil, err
	}
	defer c.lock.unlock()
	keys := make([]K, 0, len(c.index))
	for k := range c.index {
		keys = append(keys, k)
	}
	return keys, nil
}

// Entries returns a snapshot of every entry, earliest deadline first.
func (c *ExpiringCache[K, V]) Entries() ([]Entry[K, V], error) {
	if err := c.lock.lock(context.Background()); err != nil {
		return nil, err
	}
	out := make([]Entry[K, V], 0, len(c.expires))
	for _, e := range c.expires {
		out = append(out, e.snapshot())
	}
	c.lock.unlock()

	slices.SortFunc(out, func(a, b Entry[K, V]) int {
		return a.Deadline.Compare(b.Deadline)
	})
	return out, nil
}

// Purge removes entries whose deadline has passed and returns how many
// were dropped.
func (c *ExpiringCache[K, V]) Purge() (int, error) {
	return c.purge(context.Background(), time.Now())
}

// Stats returns activity counters.
func (c *ExpiringCache[K, V]) Stats() Stats {
	return Stats{
		Entries:       c.Len(),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Purged:        c.purged.Load(),
		PurgeCycles:   c.cycles.Load(),
		SkippedPurges: c.skipped.Load(),
	}
}

// Close stops the purge goroutine and waits for it. The cache stays usable
// but expired entries are no longer dropped automatically.
func (c *ExpiringCache[K, V]) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		c.wg.Wait()
	})
}

func (c *ExpiringCache[K, V]) purgeLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.PurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			if _, err := c.purge(c.ctx, now); err != nil && c.ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("purge cycle skipped")
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// purge runs one sweep. Overlapping sweeps are skipped rather than queued.
func (c *ExpiringCache[K, V]) purge(ctx context.Context, now time.Time) (int, error) {
	if !c.purging.TryLock() {
		c.skipped.Add(1)
		return 0, nil
	}
	defer c.purging.Unlock()

	if err := c.lock.lock(ctx); err != nil {
		c.skipped.Add(1)
		return 0, err
	}
	n := 0
	for e := c.expires.peek(); e != nil && e.deadline.Before(now); e = c.expires.peek() {
		c.drop(e)
		n++
	}
	c.lock.unlock()

	c.cycles.Add(1)
	if n > 0 {
		c.purged.Add(int64(n))
		c.log.Debug().Int("purged", n).Int("remaining", c.Len()).Msg("cache purged")
	}
	return n, nil
}

// insert adds a new entry. Caller holds lock.
func (c *ExpiringCache[K, V]) insert(key K, value V, ttl, window time.Duration, now time.Time) {
	e := &entry[K, V]{key: key, value: value, window: window}
	if window > 0 {
		e.deadline = now.Add(window)
	} else {
		e.deadline = now.Add(ttl)
	}
	c.index[key] = e
	heap.Push(&c.expires, e)
	c.count.Add(1)
}

// reset gives an existing entry a new value and policy. Caller holds lock.
func (c *ExpiringCache[K, V]) reset(e *entry[K, V], value V, ttl, window time.Duration, now time.Time) {
	e.value = value
	e.window = window
	if window > 0 {
		e.deadline = now.Add(window)
	} else {
		e.deadline = now.Add(ttl)
	}
	heap.Fix(&c.expires, e.index)
}

// touch records an access. Caller holds lock.
func (c *ExpiringCache[K, V]) touch(e *entry[K, V], now time.Time) {
	if e.accessed(now) {
		heap.Fix(&c.expires, e.index)
	}
}

// drop removes an entry from both indexes. Caller holds lock.
func (c *ExpiringCache[K, V]) drop(e *entry[K, V]) {
	heap.Remove(&c.expires, e.index)
	delete(c.index, e.key)
	c.count.Add(-1)
}

func checkWindow(window time.Duration) error {
	if window <= 0 {
		return api.NewError(api.ErrCodeInvalidArgument, "sliding window must be positive").
			WithContext("window", window.String())
	}
	return nil
}
