// File: api/control.go
// Package api defines Control interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Control is the runtime surface of a running hioload-udp instance:
// dotted-key configuration, metrics and debug probes of its endpoints,
// caches and backlogs.
type Control interface {
	// GetConfig returns a snapshot of the active configuration keys.
	GetConfig() map[string]any
	// SetConfig merges keys and notifies reload listeners before returning.
	SetConfig(cfg map[string]any) error
	// Stats merges metrics with probe output; probe keys carry a "debug." prefix.
	Stats() map[string]any
	OnReload(fn func())
	SetMetric(key string, value any)
	RegisterDebugProbe(name string, fn func() any)
	UnregisterDebugProbe(name string)
}
