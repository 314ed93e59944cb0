//go:build linux
// +build linux

// File: transport/udp/sockopt_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket options applied before bind through golang.org/x/sys/unix.

package udp

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

func controlFunc(cfg Config) func(network, address string, c syscall.RawConn) error {
	if !cfg.ReuseAddr && cfg.ReadBuffer <= 0 && cfg.WriteBuffer <= 0 {
		return nil
	}
	return func(network, address string, c syscall.RawConn) error {
		var serr error
		err := c.Control(func(fd uintptr) {
			serr = setSockopts(int(fd), cfg)
		})
		if err != nil {
			return err
		}
		return serr
	}
}

func setSockopts(fd int, cfg Config) error {
	if cfg.ReuseAddr {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return fmt.Errorf("SO_REUSEADDR: %w", err)
		}
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return fmt.Errorf("SO_REUSEPORT: %w", err)
		}
	}
	if cfg.ReadBuffer > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.ReadBuffer); err != nil {
			return fmt.Errorf("SO_RCVBUF: %w", err)
		}
	}
	if cfg.WriteBuffer > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.WriteBuffer); err != nil {
			return fmt.Errorf("SO_SNDBUF: %w", err)
		}
	}
	return nil
}
