// File: runqueue/runqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-core inbound run lists for cross-core deferred work. Producers on any
// core push onto a target core's list under its spinlock; the owning core
// periodically detaches the whole chain and executes it. The lock covers
// pointer manipulation only, never work execution.

package runqueue

import (
	"sync/atomic"

	"github.com/AmberBraun/zygos/internal/concurrency"
)

// Func is one deferred, one-shot unit of work.
type Func func(arg any)

// Item is an intrusive node in a core's run list. Items live in per-core
// fixed pools; the list owns an item from push until the owning core has
// executed it and returned it to the pool.
type Item struct {
	fn   Func
	arg  any
	next *Item
}

// runList is one core's inbound chain: a head-only intrusive stack guarded
// by a spinlock. Push is O(1) and drain order is therefore last-submitted-
// first; that LIFO order is a documented contract, not an accident. The
// head is atomic only so the consumer's empty-check peek needs no lock;
// every write still happens under the lock.
type runList struct {
	lock concurrency.SpinLock
	head atomic.Pointer[Item]
	_    [40]byte // pad to a cache line against neighboring lists
}

// push inserts an item at the head.
func (l *runList) push(it *Item) {
	l.lock.Lock()
	it.next = l.head.Load()
	l.head.Store(it)
	l.lock.Unlock()
}

// swapToEmpty detaches the accumulated chain. Items pushed after the swap
// land in a fresh chain for the next drain.
func (l *runList) swapToEmpty() *Item {
	if l.head.Load() == nil {
		return nil
	}
	l.lock.Lock()
	head := l.head.Swap(nil)
	l.lock.Unlock()
	return head
}
