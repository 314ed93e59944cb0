// Package control
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Configuration, hot reload, runtime metrics and debug introspection layer
// of hioload-udp.
//
// Provides:
//   - typed Config with defaults, validation and TOML/YAML file loading
//   - ConfigStore with snapshot reads, reload listeners and file watching
//   - MetricsRegistry for counters and gauges published by components
//   - DebugProbes and platform probes for live state dumps
package control
