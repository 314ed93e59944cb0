// Package cache
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Time-bounded key/value storage for hioload-udp sessions.
// ExpiringCache keeps each entry under an absolute deadline or a sliding
// window that every access pushes forward. A background goroutine purges
// expired entries on a fixed interval. Every lock acquisition is bounded
// by a configurable wait, after which the call fails with api.ErrLockTimeout.
package cache
