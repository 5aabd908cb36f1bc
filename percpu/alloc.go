// File: percpu/alloc.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral page allocator interface for NUMA-local memory windows.
// Concrete allocators are selected through platform-specific factories in
// separate files.

package percpu

// PageAllocator obtains NUMA-node-local memory regions. Alloc is called
// once per core during bring-up; regions are process-scoped and Free exists
// only for tests and fallback paths.
type PageAllocator interface {
	Alloc(size int, node int) ([]byte, error)
	Free([]byte)
}

// DefaultAllocator returns the platform page allocator.
func DefaultAllocator() PageAllocator {
	return createPageAllocator()
}
