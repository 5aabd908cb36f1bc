//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux implementation via sched_setaffinity and getcpu. Both act on the
// calling thread, so no pthread plumbing is needed.

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// bindPlatform pins the calling thread to one core.
func bindPlatform(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity(%d): %w", cpuID, err)
	}
	return nil
}

// currentPlatform reports where the calling thread runs right now.
func currentPlatform() (int, int, error) {
	cpu, node, err := unix.Getcpu()
	if err != nil {
		return -1, -1, fmt.Errorf("affinity: getcpu: %w", err)
	}
	return cpu, node, nil
}
