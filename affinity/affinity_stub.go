//go:build !linux
// +build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.
// Returns errors to indicate unavailability.

package affinity

import "errors"

var errUnsupported = errors.New("affinity: not supported on this platform")

func bindPlatform(cpuID int) error {
	return errUnsupported
}

func currentPlatform() (int, int, error) {
	return -1, -1, errUnsupported
}
