// File: internal/concurrency/spinlock.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Minimal test-and-set spinlock. Hold times in this subsystem are bounded
// to a few pointer writes; no lock here is ever held across work execution
// or a blocking call.

package concurrency

import (
	"runtime"
	"sync/atomic"
)

// SpinLock is a CAS-based mutual exclusion lock. The zero value is unlocked.
// It must never be acquired recursively.
type SpinLock struct {
	state atomic.Int32
}

// Lock spins until the lock is acquired, yielding the processor between
// failed attempts.
func (l *SpinLock) Lock() {
	for !l.state.CompareAndSwap(0, 1) {
		runtime.Gosched()
	}
}

// TryLock acquires the lock without spinning; returns false if held.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock. Calling Unlock on an unlocked SpinLock is a
// programming error.
func (l *SpinLock) Unlock() {
	l.state.Store(0)
}
