// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components that own goroutines or sockets.
type GracefulShutdown interface {
	// Shutdown stops background work and releases owned resources.
	// It is safe to call more than once.
	Shutdown() error
}
