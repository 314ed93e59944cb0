// Package adapters
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Control adapter implementing api.Control using control package primitives.

package adapters

import (
	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/control"
)

// ControlAdapter joins a config store, metrics and debug probes behind api.Control.
type ControlAdapter struct {
	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	debug   *control.DebugProbes
}

var (
	_ api.Control = (*ControlAdapter)(nil)
	_ api.Debug   = (*ControlAdapter)(nil)
)

// NewControlAdapter wraps store, or a default in-memory store when nil,
// and registers the platform probes.
func NewControlAdapter(store *control.ConfigStore) *ControlAdapter {
	if store == nil {
		store = control.NewConfigStore(nil)
	}
	adapter := &ControlAdapter{
		config:  store,
		metrics: control.NewMetricsRegistry(),
		debug:   control.NewDebugProbes(),
	}
	control.RegisterPlatformProbes(adapter.debug)
	return adapter
}

// Store exposes the underlying configuration store.
func (c *ControlAdapter) Store() *control.ConfigStore { return c.config }

// Metrics exposes the registry for counter updates.
func (c *ControlAdapter) Metrics() *control.MetricsRegistry { return c.metrics }

func (c *ControlAdapter) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

func (c *ControlAdapter) SetConfig(cfg map[string]any) error {
	c.config.SetConfig(cfg)
	return nil
}

// Stats merges metrics with probe output; probe keys get a "debug." prefix.
func (c *ControlAdapter) Stats() map[string]any {
	stats := c.metrics.GetSnapshot()
	debugStats := c.debug.DumpState()
	combined := make(map[string]any, len(stats)+len(debugStats))
	for k, v := range stats {
		combined[k] = v
	}
	for k, v := range debugStats {
		combined["debug."+k] = v
	}
	return combined
}

func (c *ControlAdapter) OnReload(fn func()) {
	c.config.OnReload(fn)
}

func (c *ControlAdapter) SetMetric(key string, value any) {
	c.metrics.Set(key, value)
}

func (c *ControlAdapter) RegisterDebugProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}

// UnregisterDebugProbe removes a probe registered by a closed component.
func (c *ControlAdapter) UnregisterDebugProbe(name string) {
	c.debug.UnregisterProbe(name)
}

func (c *ControlAdapter) DumpState() map[string]any {
	return c.debug.DumpState()
}

func (c *ControlAdapter) RegisterProbe(name string, fn func() any) {
	c.debug.RegisterProbe(name, fn)
}
