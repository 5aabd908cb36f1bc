// File: percpu/window.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-core memory window manager. Each core gets one NUMA-local region for
// the lifetime of the process: a reserved header consumed by the
// virtualization-entry primitive, followed by the core's private storage.
// The entry primitive locates both through the single base address, so
// header and storage must share one contiguous mapping.

package percpu

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/AmberBraun/zygos/api"
)

// ReservedHeaderLen is the fixed prefix of every window, owned by the entry
// primitive. Its internal layout is opaque to this subsystem.
const ReservedHeaderLen = 512

// PageSize2MB is the allocation granularity of the page allocator.
const PageSize2MB = 2 << 20

// DefaultStorageLen is the per-core private storage footprint used when no
// override is configured.
const DefaultStorageLen = 64 << 10

// Window is the exclusive, process-lifetime memory region of one core.
type Window struct {
	raw        []byte
	storageLen int
	node       int
}

// Base returns the window's base address, the value handed to the
// virtualization-entry primitive.
func (w *Window) Base() uintptr {
	return uintptr(unsafe.Pointer(&w.raw[0]))
}

// Storage returns the core-private storage area following the reserved
// header. Only the owning core may touch it.
func (w *Window) Storage() []byte {
	return w.raw[ReservedHeaderLen : ReservedHeaderLen+w.storageLen]
}

// Node returns the NUMA node the window was allocated on.
func (w *Window) Node() int {
	return w.node
}

// Manager allocates and records one window per core.
type Manager struct {
	alloc      PageAllocator
	storageLen int

	mu      sync.RWMutex
	windows [api.NCPU]*Window
}

// NewManager builds a manager carving storageLen bytes of private storage
// per core from the given allocator.
func NewManager(alloc PageAllocator, storageLen int) *Manager {
	if storageLen <= 0 {
		storageLen = DefaultStorageLen
	}
	return &Manager{alloc: alloc, storageLen: storageLen}
}

// Allocate obtains the window for one core on the given NUMA node, zeroes
// its storage area, and records it in the per-core table. On failure
// nothing is recorded and no handle is exposed.
func (m *Manager) Allocate(core, node int) (*Window, error) {
	size := roundUp(ReservedHeaderLen+m.storageLen, PageSize2MB)
	raw, err := m.alloc.Alloc(size, node)
	if err != nil {
		return nil, fmt.Errorf("%w: core %d: %v", api.ErrWindowAlloc, core, err)
	}
	w := &Window{raw: raw, storageLen: m.storageLen, node: node}
	clear(w.Storage())
	m.mu.Lock()
	m.windows[core] = w
	m.mu.Unlock()
	return w, nil
}

// Window returns the recorded window for a core, or nil before that core's
// bring-up.
func (m *Manager) Window(core int) *Window {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.windows[core]
}

// StorageLen returns the configured per-core storage footprint.
func (m *Manager) StorageLen() int {
	return m.storageLen
}

func roundUp(n, align int) int {
	return (n + align - 1) / align * align
}
