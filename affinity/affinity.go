// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for thread-to-core binding and running-core queries.
// Platform-specific implementations live in separate files
// (affinity_linux.go, affinity_stub.go) guarded by build tags.

package affinity

// Bind pins the current OS thread to the given logical core. The caller is
// expected to have locked the goroutine to its thread beforehand. On
// unsupported platforms it returns an error.
func Bind(cpuID int) error {
	return bindPlatform(cpuID)
}

// Current returns the logical core and NUMA node the calling thread is
// running on. On unsupported platforms it returns an error.
func Current() (cpu, node int, err error) {
	return currentPlatform()
}
