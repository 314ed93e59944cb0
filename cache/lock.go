// File: cache/lock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Mutual exclusion with a bounded wait.

package cache

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/momentics/hioload-udp/api"
)

// timedLock is a mutex whose acquisition gives up after wait.
type timedLock struct {
	sem  *semaphore.Weighted
	wait time.Duration
}

func newTimedLock(wait time.Duration) *timedLock {
	return &timedLock{sem: semaphore.NewWeighted(1), wait: wait}
}

// lock acquires the lock, waiting at most l.wait or until ctx ends.
func (l *timedLock) lock(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return api.NewError(api.ErrCodeLockTimeout, "cache lock could not be acquired").
			WithContext("wait", l.wait.String())
	}
	return nil
}

func (l *timedLock) unlock() {
	l.sem.Release(1)
}
