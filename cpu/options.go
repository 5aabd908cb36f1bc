// File: cpu/options.go
// Package cpu defines functional options for the Subsystem.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package cpu

import (
	"github.com/AmberBraun/zygos/percpu"
	"github.com/AmberBraun/zygos/restricted"
)

// Option customizes subsystem initialization. Options are boot-time only;
// nothing here is reconfigurable after Init.
type Option func(*Subsystem)

// WithCoreCount overrides the detected number of usable cores.
func WithCoreCount(n int) Option {
	return func(s *Subsystem) {
		s.detect = func() int { return n }
	}
}

// WithTopologySource overrides the processor information file scanned
// during Init.
func WithTopologySource(path string) Option {
	return func(s *Subsystem) {
		s.topoPath = path
	}
}

// WithStorageBytes sets the per-core private storage footprint.
func WithStorageBytes(n int) Option {
	return func(s *Subsystem) {
		s.storageBytes = n
	}
}

// WithRunnerCapacity overrides the per-core work item pool capacity.
func WithRunnerCapacity(n int) Option {
	return func(s *Subsystem) {
		s.runnerCap = n
	}
}

// WithPageAllocator substitutes the NUMA-local page allocator.
func WithPageAllocator(a percpu.PageAllocator) Option {
	return func(s *Subsystem) {
		s.pageAlloc = a
	}
}

// WithAffinity substitutes the thread binding and running-core query
// services, primarily for tests.
func WithAffinity(bind func(cpu int) error, current func() (cpu, node int, err error)) Option {
	return func(s *Subsystem) {
		s.bind = bind
		s.current = current
	}
}

// WithEntryPrimitive substitutes the virtualization-entry primitive.
func WithEntryPrimitive(p restricted.Primitive) Option {
	return func(s *Subsystem) {
		s.entry = p
	}
}
