// File: cpu/core.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Core is the resident-thread handle returned by BringUpCore. Routing the
// drain operation through the handle makes "callable only from the owning
// core's thread" a property of who holds the value, not a convention.

package cpu

import (
	"github.com/AmberBraun/zygos/percpu"
	"github.com/AmberBraun/zygos/restricted"
	"github.com/AmberBraun/zygos/runqueue"
)

// Core is one brought-up core, owned by the thread BringUpCore ran on.
type Core struct {
	sub    *Subsystem
	index  int
	token  restricted.Token
	window *percpu.Window
}

// Drain detaches and executes the work accumulated on this core's run
// list, returning how many items ran. The core's main loop is expected to
// call this periodically; nothing bounds how long a submission waits
// between drains.
func (c *Core) Drain() int {
	return c.sub.dispatch.Drain(c.index)
}

// Index returns the core's logical index.
func (c *Core) Index() int {
	return c.index
}

// Token returns the restricted-mode capability acquired during bring-up.
func (c *Core) Token() restricted.Token {
	return c.token
}

// Window returns this core's private memory window.
func (c *Core) Window() *percpu.Window {
	return c.window
}

// PoolFree reports the core's free work item count.
func (c *Core) PoolFree() int {
	return c.sub.dispatch.PoolFree(c.index)
}

// Stats snapshots this core's dispatch counters.
func (c *Core) Stats() runqueue.Stats {
	return c.sub.dispatch.CoreStats(c.index)
}
