// File: control/debug_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-udp/control"
)

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	dp.RegisterProbe("b", func() any { return 2 })
	dp.RegisterProbe("a", func() any { return 1 })
	dp.RegisterProbe("boom", func() any { panic("bad probe") })

	assert.Equal(t, []string{"a", "b", "boom"}, dp.Names())
	state := dp.DumpState()
	assert.Equal(t, 1, state["a"])
	assert.Equal(t, 2, state["b"])
	assert.Contains(t, state["boom"], "bad probe")

	dp.UnregisterProbe("boom")
	assert.NotContains(t, dp.DumpState(), "boom")
}

func TestPlatformProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	control.RegisterPlatformProbes(dp)

	state := dp.DumpState()
	assert.Positive(t, state["platform.cpus"])
	assert.Contains(t, state, "platform.goroutines")

	rss, err := control.ProcessRSS()
	require.NoError(t, err)
	assert.Positive(t, rss)
}

func TestMetricsRegistry(t *testing.T) {
	mr := control.NewMetricsRegistry()
	assert.True(t, mr.Updated().IsZero())

	mr.Set("pool.segments", 2)
	assert.Equal(t, int64(3), mr.Add("udp.rx_packets", 3))
	assert.Equal(t, int64(5), mr.Add("udp.rx_packets", 2))

	snap := mr.GetSnapshot()
	assert.Equal(t, 2, snap["pool.segments"])
	assert.Equal(t, int64(5), snap["udp.rx_packets"])
	assert.False(t, mr.Updated().IsZero())
}
