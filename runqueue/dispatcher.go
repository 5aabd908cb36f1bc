// File: runqueue/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dispatcher binds the per-core run lists and item pools together and
// implements the two dispatch operations: cross-core submit and owner-core
// drain. Submit is the sole cross-core write path in the subsystem.

package runqueue

import (
	"fmt"
	"sync/atomic"

	"github.com/AmberBraun/zygos/api"
)

// Stats are per-core dispatch counters.
type Stats struct {
	Submitted int64
	Executed  int64
	Exhausted int64
}

type coreSlot struct {
	list runList
	pool atomic.Pointer[Pool]

	submitted atomic.Int64
	executed  atomic.Int64
	exhausted atomic.Int64
}

// Dispatcher owns one run list and one item pool per managed core.
type Dispatcher struct {
	ds    *Datastore
	slots []coreSlot
}

// NewDispatcher sizes the dispatcher for count cores. Pools are attached
// later, per core, during each core's bring-up.
func NewDispatcher(count int, ds *Datastore) *Dispatcher {
	return &Dispatcher{
		ds:    ds,
		slots: make([]coreSlot, count),
	}
}

// InitCore creates and attaches the core's item pool, bring-up step six.
func (d *Dispatcher) InitCore(core int) error {
	if core < 0 || core >= len(d.slots) {
		return fmt.Errorf("%w: core %d", api.ErrInvalidTarget, core)
	}
	if !d.slots[core].pool.CompareAndSwap(nil, NewPool(d.ds)) {
		return fmt.Errorf("%w: core %d pool", api.ErrAlreadyInitialized, core)
	}
	return nil
}

// Submit schedules fn(arg) for one-shot execution on the target core. The
// item comes from the target core's pool, so exhaustion is a per-target
// condition a producer can observe and back off from. Nothing is allocated
// on any failure path.
func (d *Dispatcher) Submit(target int, fn Func, arg any) error {
	if target < 0 || target >= len(d.slots) {
		return fmt.Errorf("%w: core %d", api.ErrInvalidTarget, target)
	}
	slot := &d.slots[target]
	pool := slot.pool.Load()
	if pool == nil {
		return fmt.Errorf("%w: core %d has not been brought up", api.ErrNotInitialized, target)
	}
	it, ok := pool.Get()
	if !ok {
		slot.exhausted.Add(1)
		return fmt.Errorf("%w: core %d", api.ErrResourceExhausted, target)
	}
	it.fn = fn
	it.arg = arg
	slot.list.push(it)
	slot.submitted.Add(1)
	return nil
}

// Drain detaches the core's accumulated chain and executes it, most recent
// submission first. The run list lock is released before any work runs, so
// producers are never blocked behind execution; items submitted while a
// drain is in progress are seen only by the next drain. Each item returns
// to the pool immediately after its function does. Callable only from the
// owning core's resident thread.
func (d *Dispatcher) Drain(core int) int {
	slot := &d.slots[core]
	it := slot.list.swapToEmpty()
	if it == nil {
		return 0
	}
	pool := slot.pool.Load()
	n := 0
	for it != nil {
		next := it.next
		it.fn(it.arg)
		pool.Put(it)
		it = next
		n++
	}
	slot.executed.Add(int64(n))
	return n
}

// PoolFree reports the target core's free item count, Capacity when idle.
func (d *Dispatcher) PoolFree(core int) int {
	if pool := d.slots[core].pool.Load(); pool != nil {
		return pool.Free()
	}
	return 0
}

// CoreStats snapshots one core's dispatch counters.
func (d *Dispatcher) CoreStats(core int) Stats {
	slot := &d.slots[core]
	return Stats{
		Submitted: slot.submitted.Load(),
		Executed:  slot.executed.Load(),
		Exhausted: slot.exhausted.Load(),
	}
}

// Cores returns the number of managed cores.
func (d *Dispatcher) Cores() int {
	return len(d.slots)
}
