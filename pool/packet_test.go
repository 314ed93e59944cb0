// File: pool/packet_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool_test

import (
	"net/netip"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-udp/pool"
)

func packetConfig() pool.PacketPoolConfig {
	nop := zerolog.Nop()
	cfg := pool.DefaultPacketPoolConfig()
	cfg.AutoTrim = false
	cfg.Logger = &nop
	return cfg
}

func TestClientPacketPoolBindsRemote(t *testing.T) {
	remote := netip.MustParseAddrPort("127.0.0.1:9000")
	pp := pool.NewClientPacketPool(remote, packetConfig())
	defer pp.Close()

	require.True(t, pp.IsClient())
	b := pp.CheckOut()
	assert.True(t, b.LeasedFromPool)
	assert.Equal(t, remote, b.Endpoint)
	assert.Len(t, b.Data, pool.DefaultBufferSize)
	assert.Zero(t, b.Length)

	b.Endpoint = netip.MustParseAddrPort("10.0.0.1:1")
	b.Release()
	assert.False(t, b.LeasedFromPool)

	b = pp.CheckOut()
	assert.Equal(t, remote, b.Endpoint, "client buffers keep their remote")
	b.Release()
}

func TestServerPacketPoolClearsEndpoint(t *testing.T) {
	cfg := packetConfig()
	cfg.ItemsPerSegment = 1
	pp := pool.NewServerPacketPool(cfg)
	defer pp.Close()

	require.False(t, pp.IsClient())
	b := pp.CheckOut()
	assert.False(t, b.Endpoint.IsValid())

	b.Endpoint = netip.MustParseAddrPort("192.0.2.7:5000")
	b.CopyFrom([]byte("hello"))
	b.Release()

	again := pp.CheckOut()
	require.Same(t, b.PacketBuffer, again.PacketBuffer)
	assert.False(t, again.Endpoint.IsValid())
	assert.Zero(t, again.Length)
	assert.Empty(t, again.Bytes())
	again.Release()
}

func TestPacketPoolExclusiveBuffers(t *testing.T) {
	cfg := packetConfig()
	cfg.ItemsPerSegment = 4
	pp := pool.NewServerPacketPool(cfg)
	defer pp.Close()

	seen := make(map[*pool.PacketBuffer]bool)
	held := make([]pool.Packet, 0, 10)
	for i := 0; i < 10; i++ {
		b := pp.CheckOut()
		require.False(t, seen[b.PacketBuffer], "buffer leased twice")
		seen[b.PacketBuffer] = true
		held = append(held, b)
	}
	assert.Equal(t, 3, pp.Stats().Segments)
	for _, b := range held {
		b.Release()
	}
	assert.Equal(t, 0, pp.Stats().InUse)
}

func TestPacketBufferDoubleRelease(t *testing.T) {
	cfg := packetConfig()
	cfg.ItemsPerSegment = 1
	pp := pool.NewServerPacketPool(cfg)
	defer pp.Close()

	b := pp.CheckOut()
	b.Release()
	b.Release()
	st := pp.Stats()
	assert.Equal(t, int64(1), st.Returns)
	assert.Equal(t, 0, st.InUse)
}

func TestPacketStaleReleaseKeepsNewOwner(t *testing.T) {
	cfg := packetConfig()
	cfg.ItemsPerSegment = 1
	pp := pool.NewServerPacketPool(cfg)
	defer pp.Close()

	first := pp.CheckOut()
	first.Release()

	second := pp.CheckOut()
	require.Same(t, first.PacketBuffer, second.PacketBuffer)
	second.CopyFrom([]byte("owned"))

	first.Release()
	assert.True(t, second.LeasedFromPool)
	assert.Equal(t, "owned", string(second.Bytes()))
	assert.Equal(t, 1, pp.Stats().InUse)

	third := pp.CheckOut()
	assert.NotSame(t, second.PacketBuffer, third.PacketBuffer)
	st := pp.Stats()
	assert.Equal(t, int64(3), st.Checkouts)
	assert.Equal(t, int64(1), st.Returns)
	assert.Equal(t, 2, st.InUse)

	third.Release()
	second.Release()
	assert.Equal(t, 0, pp.Stats().InUse)
}

func TestPacketCopiesShareOneCheckout(t *testing.T) {
	cfg := packetConfig()
	cfg.ItemsPerSegment = 1
	pp := pool.NewServerPacketPool(cfg)
	defer pp.Close()

	p := pp.CheckOut()
	alias := p
	require.True(t, p.Pooled())
	p.Release()
	alias.Release()
	assert.Equal(t, int64(1), pp.Stats().Returns)
}

func TestPacketPoolBufferSize(t *testing.T) {
	cfg := packetConfig()
	cfg.BufferSize = 1500
	pp := pool.NewServerPacketPool(cfg)
	defer pp.Close()

	b := pp.CheckOut()
	defer b.Release()
	assert.Len(t, b.Data, 1500)
	assert.Equal(t, 1500, pp.BufferSize())
}

func TestDirectBufferReleaseIsNoop(t *testing.T) {
	ep := netip.MustParseAddrPort("[::1]:7000")
	b := pool.NewPacketBuffer(ep)
	b.CopyFrom([]byte{1, 2, 3})
	p := pool.Detached(b)
	assert.False(t, p.Pooled())
	p.Release()

	assert.False(t, b.LeasedFromPool)
	assert.Equal(t, []byte{1, 2, 3}, b.Bytes())
	assert.Equal(t, ep, b.Endpoint)
}

func TestNewPacketBufferFromCopies(t *testing.T) {
	src := []byte("payload")
	b := pool.NewPacketBufferFrom(src, netip.AddrPort{})
	src[0] = 'X'

	assert.Equal(t, "payload", string(b.Bytes()))
	assert.Equal(t, len("payload"), b.Length)
	assert.False(t, b.LeasedFromPool)
}

func TestWrapPacketBufferSharesData(t *testing.T) {
	data := make([]byte, 8)
	b := pool.WrapPacketBuffer(netip.AddrPort{}, data)
	n := b.CopyFrom([]byte("0123456789"))

	assert.Equal(t, 8, n, "copy truncates to capacity")
	assert.Equal(t, "01234567", string(data))
}

func TestResetEndpoint(t *testing.T) {
	home := netip.MustParseAddrPort("127.0.0.1:1")
	b := pool.NewPacketBuffer(home)
	b.Endpoint = netip.MustParseAddrPort("127.0.0.1:2")
	b.ResetEndpoint()
	assert.Equal(t, home, b.Endpoint)
}
