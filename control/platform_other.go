//go:build !linux
// +build !linux

// control/platform_other.go
// Author: momentics <momentics@gmail.com>
//
// No OS-specific probes outside Linux.

package control

func registerOSProbes(*DebugProbes) {}
