// File: control/config_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-udp/api"
	"github.com/momentics/hioload-udp/control"
)

const tomlConfig = `
[pool]
buffer_size = 1500
items_per_segment = 32
idle_timeout = "90s"

[cache]
purge_interval = "250ms"

[queue]
capacity = 8

[socket]
read_buffer = 262144
reuse_addr = true

[log]
level = "debug"
`

const yamlConfig = `
pool:
  buffer_size: 1200
  min_segments: 2
  auto_trim: false
cache:
  lock_wait: 2s
queue:
  capacity: 16
log:
  level: warn
  format: console
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	cfg, err := control.Load(writeFile(t, "udp.toml", tomlConfig))
	require.NoError(t, err)

	assert.Equal(t, 1500, cfg.Pool.BufferSize)
	assert.Equal(t, 32, cfg.Pool.ItemsPerSegment)
	assert.Equal(t, 1, cfg.Pool.MinSegments, "absent keys keep defaults")
	assert.True(t, cfg.Pool.AutoTrim)
	assert.Equal(t, 90*time.Second, cfg.Pool.IdleTimeout.Std())
	assert.Equal(t, 250*time.Millisecond, cfg.Cache.PurgeInterval.Std())
	assert.Equal(t, 5*time.Second, cfg.Cache.LockWait.Std())
	assert.Equal(t, 8, cfg.Queue.Capacity)
	assert.Equal(t, 262144, cfg.Socket.ReadBuffer)
	assert.True(t, cfg.Socket.ReuseAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadYAML(t *testing.T) {
	cfg, err := control.Load(writeFile(t, "udp.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, 1200, cfg.Pool.BufferSize)
	assert.Equal(t, 2, cfg.Pool.MinSegments)
	assert.False(t, cfg.Pool.AutoTrim)
	assert.Equal(t, 2*time.Second, cfg.Cache.LockWait.Std())
	assert.Equal(t, time.Second, cfg.Cache.PurgeInterval.Std())
	assert.Equal(t, 16, cfg.Queue.Capacity)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadEmptyYAMLUsesDefaults(t *testing.T) {
	cfg, err := control.Load(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, control.Defaults(), cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := control.Load(writeFile(t, "bad.toml", "[pool]\nbuffer_sise = 10\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrInvalidConfig))

	_, err = control.Load(writeFile(t, "bad.yaml", "pool:\n  buffer_sise: 10\n"))
	require.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	_, err := control.Load(writeFile(t, "bad.toml", "[cache]\nlock_wait = \"soon\"\n"))
	require.Error(t, err)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := control.Load(writeFile(t, "udp.json", "{}"))
	assert.True(t, errors.Is(err, api.ErrInvalidConfig))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := control.Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := control.Defaults()
	require.NoError(t, cfg.Validate())

	cfg.Pool.BufferSize = 0
	cfg.Queue.Capacity = 0
	cfg.Cache.LockWait = 0
	cfg.Log.Level = "loud"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrInvalidConfig))
	for _, field := range []string{"pool.buffer_size", "queue.capacity", "cache.lock_wait", "log.level"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestFlatten(t *testing.T) {
	flat := control.Defaults().Flatten()
	assert.Equal(t, 4096, flat["pool.buffer_size"])
	assert.Equal(t, "5m0s", flat["pool.idle_timeout"])
	assert.Equal(t, "info", flat["log.level"])
}
