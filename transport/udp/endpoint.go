// File: transport/udp/endpoint.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/internal/logging"
	"github.com/momentics/hioload-udp/pool"
)

// Config holds socket and pool settings for an Endpoint.
type Config struct {
	Pool        pool.PacketPoolConfig
	ReadBuffer  int  // SO_RCVBUF in bytes, 0 keeps the OS default
	WriteBuffer int  // SO_SNDBUF in bytes, 0 keeps the OS default
	ReuseAddr   bool // SO_REUSEADDR and SO_REUSEPORT
	Logger      *zerolog.Logger
}

// DefaultConfig returns the default pool settings and OS socket defaults.
func DefaultConfig() Config {
	return Config{Pool: pool.DefaultPacketPoolConfig()}
}

// Handler receives one datagram and owns the packet: it must call
// Release, or pass the packet to Send.
type Handler func(pool.Packet)

// Stats counts traffic through an Endpoint.
type Stats struct {
	RxPackets int64
	RxBytes   int64
	TxPackets int64
	TxBytes   int64
	Pool      api.PoolStats
}

// Endpoint is a UDP socket paired with the pool its buffers come from.
type Endpoint struct {
	conn   *net.UDPConn
	pool   *pool.PacketPool
	remote netip.AddrPort
	log    zerolog.Logger

	rxPackets atomic.Int64
	rxBytes   atomic.Int64
	txPackets atomic.Int64
	txBytes   atomic.Int64

	closed    atomic.Bool
	closeOnce sync.Once
}

// Dial opens a client Endpoint connected to remote.
func Dial(ctx context.Context, remote netip.AddrPort, cfg Config) (*Endpoint, error) {
	if !remote.IsValid() {
		return nil, fmt.Errorf("%w: remote address %q", api.ErrInvalidArgument, remote)
	}
	cfg.Pool.Logger = inheritLogger(cfg.Pool.Logger, cfg.Logger)
	d := net.Dialer{Control: controlFunc(cfg)}
	c, err := d.DialContext(ctx, "udp", remote.String())
	if err != nil {
		return nil, fmt.Errorf("udp dial %s: %w", remote, err)
	}
	ep := &Endpoint{
		conn:   c.(*net.UDPConn),
		pool:   pool.NewClientPacketPool(remote, cfg.Pool),
		remote: remote,
		log:    logging.Or(cfg.Logger, "udp"),
	}
	ep.log.Debug().Str("remote", remote.String()).Str("local", ep.LocalAddr().String()).Msg("client endpoint opened")
	return ep, nil
}

// Listen opens a server Endpoint bound to local. A zero port picks a free one.
func Listen(ctx context.Context, local netip.AddrPort, cfg Config) (*Endpoint, error) {
	cfg.Pool.Logger = inheritLogger(cfg.Pool.Logger, cfg.Logger)
	lc := net.ListenConfig{Control: controlFunc(cfg)}
	address := local.String()
	if !local.IsValid() {
		address = ":0"
	}
	pc, err := lc.ListenPacket(ctx, "udp", address)
	if err != nil {
		return nil, fmt.Errorf("udp listen %s: %w", address, err)
	}
	ep := &Endpoint{
		conn: pc.(*net.UDPConn),
		pool: pool.NewServerPacketPool(cfg.Pool),
		log:  logging.Or(cfg.Logger, "udp"),
	}
	ep.log.Debug().Str("local", ep.LocalAddr().String()).Msg("server endpoint listening")
	return ep, nil
}

func inheritLogger(own, parent *zerolog.Logger) *zerolog.Logger {
	if own != nil {
		return own
	}
	return parent
}

// IsClient reports whether the Endpoint is connected to a single remote.
func (e *Endpoint) IsClient() bool {
	return e.remote.IsValid()
}

// Remote returns the connected peer of a client Endpoint.
func (e *Endpoint) Remote() netip.AddrPort {
	return e.remote
}

// LocalAddr returns the bound local address.
func (e *Endpoint) LocalAddr() netip.AddrPort {
	if ua, ok := e.conn.LocalAddr().(*net.UDPAddr); ok {
		return ua.AddrPort()
	}
	return netip.AddrPort{}
}

// Pool returns the Endpoint's packet pool.
func (e *Endpoint) Pool() *pool.PacketPool {
	return e.pool
}

// NewPacket leases an empty buffer. Client buffers are addressed to Remote.
func (e *Endpoint) NewPacket() pool.Packet {
	return e.pool.CheckOut()
}

// Send writes b.Bytes() and releases b, whether or not the write succeeds.
// Server endpoints send to b.Endpoint.
func (e *Endpoint) Send(b pool.Packet) error {
	defer b.Release()
	if e.closed.Load() {
		return api.ErrEndpointClosed
	}

	var (
		n   int
		err error
	)
	if e.IsClient() {
		n, err = e.conn.Write(b.Bytes())
	} else {
		if !b.Endpoint.IsValid() {
			return fmt.Errorf("%w: packet has no endpoint", api.ErrInvalidArgument)
		}
		n, err = e.conn.WriteToUDPAddrPort(b.Bytes(), b.Endpoint)
	}
	if err != nil {
		if e.closed.Load() {
			return api.ErrEndpointClosed
		}
		return fmt.Errorf("udp send: %w", err)
	}
	e.txPackets.Add(1)
	e.txBytes.Add(int64(n))
	return nil
}

// Serve reads datagrams into pooled buffers and hands each to handler on
// the calling goroutine. It returns nil when ctx ends and
// api.ErrEndpointClosed after Close.
func (e *Endpoint) Serve(ctx context.Context, handler Handler) error {
	if e.closed.Load() {
		return api.ErrEndpointClosed
	}
	if err := e.conn.SetReadDeadline(time.Time{}); err != nil {
		return fmt.Errorf("udp serve: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = e.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		b := e.pool.CheckOut()
		n, from, err := e.conn.ReadFromUDPAddrPort(b.Data)
		if err != nil {
			b.Release()
			switch {
			case ctx.Err() != nil:
				return nil
			case e.closed.Load() || errors.Is(err, net.ErrClosed):
				return api.ErrEndpointClosed
			default:
				var ne net.Error
				if errors.As(err, &ne) && ne.Timeout() {
					continue
				}
				return fmt.Errorf("udp receive: %w", err)
			}
		}
		b.Length = n
		b.Endpoint = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())
		e.rxPackets.Add(1)
		e.rxBytes.Add(int64(n))
		handler(b)
	}
}

// Stats returns traffic counters and pool accounting.
func (e *Endpoint) Stats() Stats {
	return Stats{
		RxPackets: e.rxPackets.Load(),
		RxBytes:   e.rxBytes.Load(),
		TxPackets: e.txPackets.Load(),
		TxBytes:   e.txBytes.Load(),
		Pool:      e.pool.Stats(),
	}
}

// Close shuts the socket and stops the pool's trimming. Buffers still held
// by callers may be released afterwards.
func (e *Endpoint) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		err = e.conn.Close()
		e.pool.Close()
		e.log.Debug().Str("local", e.LocalAddr().String()).Msg("endpoint closed")
	})
	return err
}

// Shutdown implements api.GracefulShutdown.
func (e *Endpoint) Shutdown() error {
	return e.Close()
}

var _ api.GracefulShutdown = (*Endpoint)(nil)
