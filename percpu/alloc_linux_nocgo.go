//go:build linux && !cgo
// +build linux,!cgo

// File: percpu/alloc_linux_nocgo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pure-Go Linux page allocator for builds without CGO/libnuma. Maps
// anonymous memory (hugepages first, normal pages as fallback) and binds it
// to the requested NUMA node with mbind(MPOL_BIND).

package percpu

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MPOL_BIND: strict allocation from the given nodemask.
const mpolBind = 2

// maxNodeBits covers every nodemask a single-word mbind call can express.
const maxNodeBits = 64

type mmapAllocator struct{}

func createPageAllocator() PageAllocator {
	return &mmapAllocator{}
}

func (a *mmapAllocator) Alloc(size int, node int) ([]byte, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE
	buf, err := unix.Mmap(-1, 0, size, prot,
		unix.MAP_ANONYMOUS|unix.MAP_PRIVATE|unix.MAP_HUGETLB)
	if err != nil {
		// No hugepages configured; normal pages still satisfy the contract.
		buf, err = unix.Mmap(-1, 0, size, prot, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE)
		if err != nil {
			return nil, fmt.Errorf("percpu: mmap %d bytes: %w", size, err)
		}
	}
	if node >= 0 && node < maxNodeBits {
		if err := bindToNode(buf, node); err != nil {
			_ = unix.Munmap(buf)
			return nil, err
		}
	}
	return buf, nil
}

func (a *mmapAllocator) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	_ = unix.Munmap(buf)
}

// bindToNode restricts the mapping's backing pages to one NUMA node.
// ENOSYS means a kernel without NUMA policy support, where every node is
// node 0 and the binding is vacuous.
func bindToNode(buf []byte, node int) error {
	mask := [1]uint64{1 << uint(node)}
	_, _, errno := unix.Syscall6(unix.SYS_MBIND,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)),
		mpolBind, uintptr(unsafe.Pointer(&mask[0])), maxNodeBits+1, 0)
	if errno != 0 && errno != unix.ENOSYS {
		return fmt.Errorf("percpu: mbind node %d: %w", node, errno)
	}
	return nil
}
