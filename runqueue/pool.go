// File: runqueue/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-capacity work item pools. One pool per core, but allocation is
// reached from arbitrary producer cores, so the free list is a bounded
// MPMC queue rather than anything thread-local.

package runqueue

import (
	"fmt"
	"sync/atomic"

	"github.com/AmberBraun/zygos/internal/concurrency"
)

// Datastore carries the capacity configuration shared by every per-core
// pool, created once at subsystem init.
type Datastore struct {
	capacity int
}

// NewDatastore validates and records the per-core pool capacity.
func NewDatastore(capacity int) (*Datastore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("runqueue: pool capacity %d out of range", capacity)
	}
	return &Datastore{capacity: capacity}, nil
}

// Capacity returns the per-core item capacity.
func (ds *Datastore) Capacity() int {
	return ds.capacity
}

// Pool is one core's work item arena: every item is preallocated and cycles
// through the free list. Get and Put are safe from any core.
type Pool struct {
	free     *concurrency.BoundedQueue[*Item]
	capacity int
	avail    atomic.Int64
}

// NewPool builds a full pool from the datastore's capacity.
func NewPool(ds *Datastore) *Pool {
	p := &Pool{
		free:     concurrency.NewBoundedQueue[*Item](ds.capacity),
		capacity: ds.capacity,
	}
	for i := 0; i < ds.capacity; i++ {
		p.free.Enqueue(&Item{})
	}
	p.avail.Store(int64(ds.capacity))
	return p
}

// Get takes a free item; ok is false when the pool is exhausted.
func (p *Pool) Get() (*Item, bool) {
	it, ok := p.free.Dequeue()
	if ok {
		p.avail.Add(-1)
	}
	return it, ok
}

// Put returns an executed item. Fields are cleared so a stale closure or
// argument cannot outlive its execution.
func (p *Pool) Put(it *Item) {
	it.fn = nil
	it.arg = nil
	it.next = nil
	p.free.Enqueue(it)
	p.avail.Add(1)
}

// Free returns the current number of available items. After every submitted
// item has drained, Free reports Capacity again.
func (p *Pool) Free() int {
	return int(p.avail.Load())
}

// Capacity returns the fixed pool size.
func (p *Pool) Capacity() int {
	return p.capacity
}
