// File: control/platform.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-level debug probes backed by gopsutil.

package control

import (
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

// RegisterPlatformProbes adds CPU, goroutine and process memory probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.goroutines", func() any {
		return runtime.NumGoroutine()
	})

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		dp.RegisterProbe("process.rss_bytes", func() any {
			mem, err := proc.MemoryInfo()
			if err != nil {
				return err.Error()
			}
			return mem.RSS
		})
		dp.RegisterProbe("process.threads", func() any {
			n, err := proc.NumThreads()
			if err != nil {
				return err.Error()
			}
			return n
		})
	}
	registerOSProbes(dp)
}

// ProcessRSS returns the resident set size of the current process.
func ProcessRSS() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return mem.RSS, nil
}
