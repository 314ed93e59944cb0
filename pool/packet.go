// File: pool/packet.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// PacketBuffer holds one UDP datagram that is sent or received by an
// endpoint. Its byte region is allocated once and never resized.

package pool

import "net/netip"

// DefaultBufferSize fits the datagrams exchanged with a typical peer.
const DefaultBufferSize = 4096

// PacketBuffer is a reusable datagram container.
type PacketBuffer struct {
	// Data is the raw packet region.
	Data []byte
	// Length is the number of valid bytes in Data.
	Length int
	// Endpoint is the remote host; filled per receive in server mode.
	Endpoint netip.AddrPort
	// LeasedFromPool is set while the buffer is checked out of a PacketPool.
	LeasedFromPool bool

	home netip.AddrPort // endpoint restored by Reset
}

// NewPacketBuffer allocates a DefaultBufferSize buffer bound to endpoint.
// Pass the zero AddrPort for a receive buffer.
func NewPacketBuffer(endpoint netip.AddrPort) *PacketBuffer {
	return NewPacketBufferSize(endpoint, DefaultBufferSize)
}

// NewPacketBufferSize allocates a buffer of size bytes bound to endpoint.
func NewPacketBufferSize(endpoint netip.AddrPort, size int) *PacketBuffer {
	return &PacketBuffer{
		Data:     make([]byte, size),
		Endpoint: endpoint,
		home:     endpoint,
	}
}

// NewPacketBufferFrom copies data into a new buffer sized to fit it.
// The buffer is not pool-owned; see Detached.
func NewPacketBufferFrom(data []byte, endpoint netip.AddrPort) *PacketBuffer {
	b := NewPacketBufferSize(endpoint, len(data))
	b.CopyFrom(data)
	return b
}

// WrapPacketBuffer uses data as the packet region without allocating.
func WrapPacketBuffer(endpoint netip.AddrPort, data []byte) *PacketBuffer {
	return &PacketBuffer{
		Data:     data,
		Endpoint: endpoint,
		home:     endpoint,
	}
}

// Bytes returns the valid portion of Data.
func (b *PacketBuffer) Bytes() []byte {
	return b.Data[:b.Length]
}

// CopyFrom copies src into Data, truncating to capacity, and sets Length.
func (b *PacketBuffer) CopyFrom(src []byte) int {
	n := copy(b.Data, src)
	b.Length = n
	return n
}

// ResetEndpoint restores the endpoint the buffer was created with.
func (b *PacketBuffer) ResetEndpoint() {
	b.Endpoint = b.home
}

// Reset clears the valid length, endpoint and leased flag before reuse.
func (b *PacketBuffer) Reset() {
	b.Length = 0
	b.Endpoint = b.home
	b.LeasedFromPool = false
}
