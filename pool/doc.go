// Package pool
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Memory layer for hioload-udp.
// Pool[T] is a segmented object pool that leases each item to exactly one
// caller and trims idle segments. PacketPool specializes it for datagram
// buffers in client or server mode. CircularQueue is a bounded ring that
// overwrites its oldest entry when full.
// See objpool.go, packet_pool.go and ring.go for implementation details.
package pool
