// File: api/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared types and limits for the core-management subsystem.

package api

// NCPU bounds every per-core table in the subsystem. A machine with more
// logical processors than this cannot be managed.
const NCPU = 128

// MaxRunners is the fixed capacity of each core's work item pool.
const MaxRunners = 1024

// CoreState describes one brought-up core. It is written exactly once, by
// the owning core during its own bring-up, and is read-only afterwards.
// Reading a core's state before that core's bring-up has completed returns
// the zero value with Active == false.
type CoreState struct {
	// Index is the dense, zero-based logical core index.
	Index int

	// NUMANode is the memory-locality domain the core runs on.
	NUMANode int

	// HardwareID is the platform-assigned identifier (apicid) discovered
	// by the topology scan for this logical index.
	HardwareID int

	// Active reports whether bring-up completed for this core.
	Active bool
}
