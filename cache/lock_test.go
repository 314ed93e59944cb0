// File: cache/lock_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-udp/api"
)

func TestLockTimeoutSurfaces(t *testing.T) {
	nop := zerolog.Nop()
	c := New[string, int](Config{PurgeInterval: time.Hour, LockWait: 20 * time.Millisecond, Logger: &nop})
	defer c.Close()

	require.NoError(t, c.lock.lock(context.Background()))

	start := time.Now()
	_, err := c.Add("k", 1, time.Minute)
	assert.True(t, errors.Is(err, api.ErrLockTimeout))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	_, _, err = c.TryGet("k")
	assert.True(t, errors.Is(err, api.ErrLockTimeout))

	_, err = c.Purge()
	assert.True(t, errors.Is(err, api.ErrLockTimeout))
	assert.Equal(t, int64(1), c.Stats().SkippedPurges)

	c.lock.unlock()
	added, err := c.Add("k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestOverlappingPurgeSkipped(t *testing.T) {
	nop := zerolog.Nop()
	c := New[string, int](Config{PurgeInterval: time.Hour, Logger: &nop})
	defer c.Close()

	c.purging.Lock()
	n, err := c.Purge()
	c.purging.Unlock()

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(1), c.Stats().SkippedPurges)
}

func TestHeapTracksIndexes(t *testing.T) {
	nop := zerolog.Nop()
	c := New[int, int](Config{PurgeInterval: time.Hour, Logger: &nop})
	defer c.Close()

	for i := 0; i < 20; i++ {
		_, err := c.Add(i, i, time.Duration(20-i)*time.Second)
		require.NoError(t, err)
	}
	for i := 0; i < 20; i += 3 {
		_, err := c.Remove(i)
		require.NoError(t, err)
	}
	require.Equal(t, len(c.index), len(c.expires))
	for pos, e := range c.expires {
		assert.Equal(t, pos, e.index)
		assert.Same(t, e, c.index[e.key])
	}
}
