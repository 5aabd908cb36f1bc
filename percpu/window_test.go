// File: percpu/window_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package percpu

import (
	"errors"
	"testing"

	"github.com/AmberBraun/zygos/api"
)

// fakeAllocator hands out dirty heap memory and records each request.
type fakeAllocator struct {
	lastSize int
	lastNode int
	fail     bool
}

func (f *fakeAllocator) Alloc(size, node int) ([]byte, error) {
	if f.fail {
		return nil, errors.New("no pages on node")
	}
	f.lastSize = size
	f.lastNode = node
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0xAB
	}
	return buf, nil
}

func (f *fakeAllocator) Free([]byte) {}

func TestAllocate_SizeAndPlacement(t *testing.T) {
	fa := &fakeAllocator{}
	m := NewManager(fa, 4096)

	w, err := m.Allocate(3, 1)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	// Header plus storage, rounded to the 2MB page granularity.
	if fa.lastSize != PageSize2MB {
		t.Errorf("requested %d bytes, want %d", fa.lastSize, PageSize2MB)
	}
	if fa.lastNode != 1 {
		t.Errorf("requested node %d, want 1", fa.lastNode)
	}
	if w.Node() != 1 {
		t.Errorf("window node %d, want 1", w.Node())
	}
	if len(w.Storage()) != 4096 {
		t.Errorf("storage length %d, want 4096", len(w.Storage()))
	}
	if w.Base() == 0 {
		t.Error("window base is zero")
	}
	if got := m.Window(3); got != w {
		t.Error("window not recorded in per-core table")
	}
}

func TestAllocate_RoundsUpLargeFootprint(t *testing.T) {
	fa := &fakeAllocator{}
	m := NewManager(fa, PageSize2MB) // header pushes past one page
	if _, err := m.Allocate(0, 0); err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if fa.lastSize != 2*PageSize2MB {
		t.Errorf("requested %d bytes, want %d", fa.lastSize, 2*PageSize2MB)
	}
}

func TestAllocate_ZeroesStorageOnly(t *testing.T) {
	m := NewManager(&fakeAllocator{}, 512)
	w, err := m.Allocate(0, 0)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	for i, b := range w.Storage() {
		if b != 0 {
			t.Fatalf("storage byte %d = %#x, want 0", i, b)
		}
	}
	// The reserved header belongs to the entry primitive and is left alone.
	if w.raw[0] != 0xAB {
		t.Error("reserved header was modified")
	}
}

func TestAllocate_FailurePropagates(t *testing.T) {
	m := NewManager(&fakeAllocator{fail: true}, 512)
	_, err := m.Allocate(5, 0)
	if !errors.Is(err, api.ErrWindowAlloc) {
		t.Fatalf("expected ErrWindowAlloc, got %v", err)
	}
	if m.Window(5) != nil {
		t.Error("failed allocation left a recorded window")
	}
}

func TestNewManager_DefaultFootprint(t *testing.T) {
	m := NewManager(&fakeAllocator{}, 0)
	if m.StorageLen() != DefaultStorageLen {
		t.Fatalf("storage len %d, want default %d", m.StorageLen(), DefaultStorageLen)
	}
}
