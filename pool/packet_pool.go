// File: pool/packet_pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// PacketPool specializes Pool for datagram buffers. In client mode every
// buffer is pre-bound to one remote endpoint; in server mode buffers carry
// no endpoint until the I/O layer fills it on receive.

package pool

import (
	"net/netip"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-udp/api"
)

// PacketPoolConfig sizes the buffers and segments of a PacketPool.
type PacketPoolConfig struct {
	BufferSize      int
	ItemsPerSegment int
	MinSegments     int
	AutoTrim        bool
	IdleTimeout     time.Duration
	Logger          *zerolog.Logger
}

// DefaultPacketPoolConfig returns 4 KiB buffers, 16 per segment, one warm
// segment, trimmed after five idle minutes.
func DefaultPacketPoolConfig() PacketPoolConfig {
	return PacketPoolConfig{
		BufferSize:      DefaultBufferSize,
		ItemsPerSegment: DefaultItemsPerSegment,
		MinSegments:     DefaultMinSegments,
		AutoTrim:        true,
		IdleTimeout:     DefaultIdleTimeout,
	}
}

// PacketPool leases PacketBuffers.
type PacketPool struct {
	remote netip.AddrPort
	size   int
	pool   *Pool[*PacketBuffer]
}

// NewClientPacketPool creates a pool whose buffers target remote.
func NewClientPacketPool(remote netip.AddrPort, cfg PacketPoolConfig) *PacketPool {
	return newPacketPool(remote, cfg)
}

// NewServerPacketPool creates a pool whose buffers have no fixed endpoint.
func NewServerPacketPool(cfg PacketPoolConfig) *PacketPool {
	return newPacketPool(netip.AddrPort{}, cfg)
}

func newPacketPool(remote netip.AddrPort, cfg PacketPoolConfig) *PacketPool {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	pp := &PacketPool{remote: remote, size: cfg.BufferSize}
	pp.pool = New(Config{
		ItemsPerSegment: cfg.ItemsPerSegment,
		MinSegments:     cfg.MinSegments,
		AutoTrim:        cfg.AutoTrim,
		IdleTimeout:     cfg.IdleTimeout,
		Logger:          cfg.Logger,
	}, pp.newBuffer)
	return pp
}

// newBuffer is the pool's item factory.
func (pp *PacketPool) newBuffer() *PacketBuffer {
	return NewPacketBufferSize(pp.remote, pp.size)
}

// CheckOut leases a buffer. Return it with Packet.Release.
func (pp *PacketPool) CheckOut() Packet {
	lease := pp.pool.Checkout()
	b := lease.Value()
	b.LeasedFromPool = true
	return Packet{PacketBuffer: b, lease: lease}
}

// Packet is one checkout of a PacketBuffer. Copies of a Packet share the
// buffer and the checkout: the first Release returns the buffer, later
// ones are ignored, and so is a Release from an earlier checkout of the
// same buffer.
type Packet struct {
	*PacketBuffer
	lease Lease[*PacketBuffer]
}

// Detached wraps a buffer that did not come from a pool. Its Release is a
// no-op.
func Detached(b *PacketBuffer) Packet {
	return Packet{PacketBuffer: b}
}

// Pooled reports whether Release hands the buffer back to a pool.
func (p Packet) Pooled() bool {
	return p.lease.pool != nil
}

// Release returns the buffer to its PacketPool. The buffer must not be
// used afterwards.
func (p Packet) Release() {
	p.lease.Release()
}

// IsClient reports whether buffers are pre-bound to a remote endpoint.
func (pp *PacketPool) IsClient() bool {
	return pp.remote.IsValid()
}

// Remote returns the bound endpoint in client mode.
func (pp *PacketPool) Remote() netip.AddrPort {
	return pp.remote
}

// BufferSize returns the capacity of every buffer in the pool.
func (pp *PacketPool) BufferSize() int {
	return pp.size
}

// Trim releases idle segments; see Pool.Trim.
func (pp *PacketPool) Trim() int {
	return pp.pool.Trim()
}

// Stats returns the underlying pool accounting.
func (pp *PacketPool) Stats() api.PoolStats {
	return pp.pool.Stats()
}

// Close stops background trimming.
func (pp *PacketPool) Close() {
	pp.pool.Close()
}
