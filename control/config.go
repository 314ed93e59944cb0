// File: control/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Typed configuration for pools, caches, backlogs, sockets and logging.

package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/internal/logging"
)

// maxDatagram is the largest UDP payload over IPv4.
const maxDatagram = 65507

// Config is the root configuration document.
type Config struct {
	Pool   PoolConfig     `toml:"pool" yaml:"pool"`
	Cache  CacheConfig    `toml:"cache" yaml:"cache"`
	Queue  QueueConfig    `toml:"queue" yaml:"queue"`
	Socket SocketConfig   `toml:"socket" yaml:"socket"`
	Log    logging.Config `toml:"log" yaml:"log"`
}

// PoolConfig sizes packet pools.
type PoolConfig struct {
	BufferSize      int      `toml:"buffer_size" yaml:"buffer_size"`
	ItemsPerSegment int      `toml:"items_per_segment" yaml:"items_per_segment"`
	MinSegments     int      `toml:"min_segments" yaml:"min_segments"`
	AutoTrim        bool     `toml:"auto_trim" yaml:"auto_trim"`
	IdleTimeout     Duration `toml:"idle_timeout" yaml:"idle_timeout"`
}

// CacheConfig drives expiring caches.
type CacheConfig struct {
	PurgeInterval Duration `toml:"purge_interval" yaml:"purge_interval"`
	LockWait      Duration `toml:"lock_wait" yaml:"lock_wait"`
}

// QueueConfig sizes circular backlogs.
type QueueConfig struct {
	Capacity int `toml:"capacity" yaml:"capacity"`
}

// SocketConfig holds UDP socket options. Zero buffers keep the OS default.
type SocketConfig struct {
	ReadBuffer  int  `toml:"read_buffer" yaml:"read_buffer"`
	WriteBuffer int  `toml:"write_buffer" yaml:"write_buffer"`
	ReuseAddr   bool `toml:"reuse_addr" yaml:"reuse_addr"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Pool: PoolConfig{
			BufferSize:      4096,
			ItemsPerSegment: 16,
			MinSegments:     1,
			AutoTrim:        true,
			IdleTimeout:     Duration(5 * time.Minute),
		},
		Cache: CacheConfig{
			PurgeInterval: Duration(time.Second),
			LockWait:      Duration(5 * time.Second),
		},
		Queue: QueueConfig{Capacity: 64},
		Log:   logging.DefaultConfig(),
	}
}

// Validate reports every invalid field. The error wraps api.ErrInvalidConfig.
func (c *Config) Validate() error {
	var problems []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Errorf(format, args...))
		}
	}

	check(c.Pool.BufferSize > 0 && c.Pool.BufferSize <= maxDatagram,
		"pool.buffer_size must be in 1..%d, got %d", maxDatagram, c.Pool.BufferSize)
	check(c.Pool.ItemsPerSegment > 0,
		"pool.items_per_segment must be positive, got %d", c.Pool.ItemsPerSegment)
	check(c.Pool.MinSegments >= 0,
		"pool.min_segments must not be negative, got %d", c.Pool.MinSegments)
	check(c.Pool.IdleTimeout > 0,
		"pool.idle_timeout must be positive, got %s", c.Pool.IdleTimeout)
	check(c.Cache.PurgeInterval > 0,
		"cache.purge_interval must be positive, got %s", c.Cache.PurgeInterval)
	check(c.Cache.LockWait > 0,
		"cache.lock_wait must be positive, got %s", c.Cache.LockWait)
	check(c.Queue.Capacity >= 1,
		"queue.capacity must be at least 1, got %d", c.Queue.Capacity)
	check(c.Socket.ReadBuffer >= 0 && c.Socket.WriteBuffer >= 0,
		"socket buffers must not be negative")
	if c.Log.Level != "" {
		_, err := zerolog.ParseLevel(c.Log.Level)
		check(err == nil, "log.level %q is not a level", c.Log.Level)
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", api.ErrInvalidConfig, errors.Join(problems...))
}

// Flatten renders c as dotted keys, the form served by api.Control.
func (c *Config) Flatten() map[string]any {
	return map[string]any{
		"pool.buffer_size":       c.Pool.BufferSize,
		"pool.items_per_segment": c.Pool.ItemsPerSegment,
		"pool.min_segments":      c.Pool.MinSegments,
		"pool.auto_trim":         c.Pool.AutoTrim,
		"pool.idle_timeout":      c.Pool.IdleTimeout.String(),
		"cache.purge_interval":   c.Cache.PurgeInterval.String(),
		"cache.lock_wait":        c.Cache.LockWait.String(),
		"queue.capacity":         c.Queue.Capacity,
		"socket.read_buffer":     c.Socket.ReadBuffer,
		"socket.write_buffer":    c.Socket.WriteBuffer,
		"socket.reuse_addr":      c.Socket.ReuseAddr,
		"log.level":              c.Log.Level,
		"log.format":             c.Log.Format,
		"log.output":             c.Log.Output,
	}
}
