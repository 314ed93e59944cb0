//go:build !linux
// +build !linux

// File: transport/udp/sockopt_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket options are not applied outside Linux.

package udp

import "syscall"

func controlFunc(Config) func(network, address string, c syscall.RawConn) error {
	return nil
}
