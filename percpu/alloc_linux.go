//go:build linux && cgo
// +build linux,cgo

// File: percpu/alloc_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux page allocator using libnuma via CGO. Falls back to plain malloc
// when the kernel reports no NUMA support, which is the single-node case.

package percpu

/*
#cgo LDFLAGS: -lnuma
#include <numa.h>
#include <stdlib.h>
void* zygos_alloc_onnode(size_t size, int node) {
	if (numa_available() == -1 || node < 0) {
		return calloc(1, size);
	}
	return numa_alloc_onnode(size, node);
}
void zygos_free(void *mem, size_t size) {
	if (numa_available() == -1) {
		free(mem);
		return;
	}
	numa_free(mem, size);
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

type numaAllocator struct{}

func createPageAllocator() PageAllocator {
	return &numaAllocator{}
}

func (a *numaAllocator) Alloc(size int, node int) ([]byte, error) {
	ptr := C.zygos_alloc_onnode(C.size_t(size), C.int(node))
	if ptr == nil {
		return nil, fmt.Errorf("percpu: numa_alloc_onnode(%d bytes, node %d) failed", size, node)
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (a *numaAllocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	C.zygos_free(unsafe.Pointer(&buf[0]), C.size_t(len(buf)))
}
