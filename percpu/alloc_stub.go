//go:build !linux
// +build !linux

// File: percpu/alloc_stub.go
// Author: momentics <momentics@gmail.com>
//
// Heap-backed page allocator for platforms without NUMA placement. The
// node argument is ignored; locality is whatever the runtime provides.

package percpu

type heapAllocator struct{}

func createPageAllocator() PageAllocator {
	return &heapAllocator{}
}

func (a *heapAllocator) Alloc(size int, node int) ([]byte, error) {
	return make([]byte, size), nil
}

func (a *heapAllocator) Free([]byte) {}
