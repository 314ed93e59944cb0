// File: facade/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Translation from the file configuration to component configs.

package facade

import (
	"github.com/momentics/hioload-udp/cache"
	"github.com/momentics/hioload-udp/control"
	"github.com/momentics/hioload-udp/pool"
	"github.com/momentics/hioload-udp/transport/udp"
)

func packetPoolConfig(cfg *control.Config) pool.PacketPoolConfig {
	return pool.PacketPoolConfig{
		BufferSize:      cfg.Pool.BufferSize,
		ItemsPerSegment: cfg.Pool.ItemsPerSegment,
		MinSegments:     cfg.Pool.MinSegments,
		AutoTrim:        cfg.Pool.AutoTrim,
		IdleTimeout:     cfg.Pool.IdleTimeout.Std(),
	}
}

func objectPoolConfig(cfg *control.Config) pool.Config {
	return pool.Config{
		ItemsPerSegment: cfg.Pool.ItemsPerSegment,
		MinSegments:     cfg.Pool.MinSegments,
		AutoTrim:        cfg.Pool.AutoTrim,
		IdleTimeout:     cfg.Pool.IdleTimeout.Std(),
	}
}

func endpointConfig(cfg *control.Config) udp.Config {
	return udp.Config{
		Pool:        packetPoolConfig(cfg),
		ReadBuffer:  cfg.Socket.ReadBuffer,
		WriteBuffer: cfg.Socket.WriteBuffer,
		ReuseAddr:   cfg.Socket.ReuseAddr,
	}
}

func cacheConfig(cfg *control.Config) cache.Config {
	return cache.Config{
		PurgeInterval: cfg.Cache.PurgeInterval.Std(),
		LockWait:      cfg.Cache.LockWait.Std(),
	}
}
