//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific debug probes.

package control

import "github.com/shirou/gopsutil/v3/load"

func registerOSProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.load1", func() any {
		avg, err := load.Avg()
		if err != nil {
			return err.Error()
		}
		return avg.Load1
	})
}
