// File: transport/udp/endpoint_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package udp_test

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/pool"
	"github.com/momentics/hioload-udp/transport/udp"
)

func testConfig() udp.Config {
	nop := zerolog.Nop()
	cfg := udp.DefaultConfig()
	cfg.Pool.AutoTrim = false
	cfg.Logger = &nop
	return cfg
}

func TestLoopbackEcho(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig()
	cfg.ReuseAddr = true
	cfg.ReadBuffer = 1 << 18
	server, err := udp.Listen(ctx, netip.MustParseAddrPort("127.0.0.1:0"), cfg)
	require.NoError(t, err)
	defer server.Close()
	require.False(t, server.IsClient())

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Serve(ctx, func(b pool.Packet) {
			assert.True(t, b.LeasedFromPool)
			assert.True(t, b.Endpoint.IsValid())
			if err := server.Send(b); err != nil {
				t.Errorf("echo: %v", err)
			}
		})
	}()

	client, err := udp.Dial(ctx, server.LocalAddr(), testConfig())
	require.NoError(t, err)
	defer client.Close()
	require.True(t, client.IsClient())
	assert.Equal(t, server.LocalAddr(), client.Remote())

	replies := make(chan string, 16)
	clientDone := make(chan error, 1)
	go func() {
		clientDone <- client.Serve(ctx, func(b pool.Packet) {
			replies <- string(b.Bytes())
			b.Release()
		})
	}()

	const count = 10
	for i := 0; i < count; i++ {
		p := client.NewPacket()
		assert.Equal(t, server.LocalAddr(), p.Endpoint)
		p.CopyFrom([]byte(fmt.Sprintf("ping-%d", i)))
		require.NoError(t, client.Send(p))
	}

	got := make(map[string]bool)
	timeout := time.After(5 * time.Second)
	for len(got) < count {
		select {
		case r := <-replies:
			got[r] = true
		case <-timeout:
			t.Fatalf("received %d of %d echoes", len(got), count)
		}
	}
	assert.True(t, got["ping-0"])
	assert.True(t, got[fmt.Sprintf("ping-%d", count-1)])

	cancel()
	require.NoError(t, <-serverDone)
	require.NoError(t, <-clientDone)

	sst := server.Stats()
	assert.Equal(t, int64(count), sst.RxPackets)
	assert.Equal(t, int64(count), sst.TxPackets)
	assert.Equal(t, 0, sst.Pool.InUse, "every buffer returned to the server pool")
	assert.Equal(t, 0, client.Stats().Pool.InUse, "every buffer returned to the client pool")
}

func TestServeStopsOnClose(t *testing.T) {
	ep, err := udp.Listen(context.Background(), netip.MustParseAddrPort("127.0.0.1:0"), testConfig())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- ep.Serve(context.Background(), func(b pool.Packet) { b.Release() })
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, ep.Close())

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, api.ErrEndpointClosed))
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
	assert.NoError(t, ep.Close(), "second close is a no-op")
}

func TestSendAfterCloseReleases(t *testing.T) {
	ep, err := udp.Dial(context.Background(), netip.MustParseAddrPort("127.0.0.1:9"), testConfig())
	require.NoError(t, err)
	p := ep.NewPacket()
	require.NoError(t, ep.Close())

	err = ep.Send(p)
	assert.True(t, errors.Is(err, api.ErrEndpointClosed))
	assert.False(t, p.LeasedFromPool)
	assert.Equal(t, 0, ep.Stats().Pool.InUse)
}

func TestServerSendNeedsEndpoint(t *testing.T) {
	ep, err := udp.Listen(context.Background(), netip.MustParseAddrPort("127.0.0.1:0"), testConfig())
	require.NoError(t, err)
	defer ep.Close()

	p := ep.NewPacket()
	p.CopyFrom([]byte("x"))
	err = ep.Send(p)
	assert.True(t, errors.Is(err, api.ErrInvalidArgument))
	assert.Equal(t, 0, ep.Stats().Pool.InUse)
}

func TestDialRejectsZeroAddress(t *testing.T) {
	_, err := udp.Dial(context.Background(), netip.AddrPort{}, testConfig())
	assert.True(t, errors.Is(err, api.ErrInvalidArgument))
}
