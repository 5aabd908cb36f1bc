// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error taxonomy for the core-management subsystem. Bring-up failures are
// unrecoverable for the affected core; ErrResourceExhausted and
// ErrInvalidTarget are ordinary runtime conditions a submitter may retry.

package api

import "errors"

var (
	// ErrConfig indicates a detected core count outside (0, NCPU].
	ErrConfig = errors.New("cpu: core count out of bounds")

	// ErrTopologyScan indicates the topology source could not be read or
	// contained a malformed record.
	ErrTopologyScan = errors.New("cpu: topology scan failed")

	// ErrAffinity indicates the affinity bind was rejected, or the thread
	// did not migrate to the requested core.
	ErrAffinity = errors.New("cpu: affinity bind failed")

	// ErrTopologyQuery indicates the running-cpu/NUMA query is unsupported.
	ErrTopologyQuery = errors.New("cpu: topology query unsupported")

	// ErrWindowAlloc indicates the NUMA-local memory window could not be
	// allocated.
	ErrWindowAlloc = errors.New("cpu: memory window allocation failed")

	// ErrPrivilegedEntry indicates the virtualization-entry primitive
	// rejected the core. restricted.EntryError wraps this sentinel.
	ErrPrivilegedEntry = errors.New("cpu: privileged mode entry failed")

	// ErrResourceExhausted indicates the target core's work item pool has
	// no free slots.
	ErrResourceExhausted = errors.New("cpu: work item pool exhausted")

	// ErrInvalidTarget indicates a core index outside [0, CoreCount).
	ErrInvalidTarget = errors.New("cpu: invalid target core")

	// ErrInternal indicates a broken internal consistency invariant, such
	// as a brought-up core missing from the topology table. This is a
	// programming error, not a runtime condition to recover from.
	ErrInternal = errors.New("cpu: internal consistency failure")

	// ErrAlreadyInitialized indicates a second Init or a second bring-up
	// of the same core.
	ErrAlreadyInitialized = errors.New("cpu: already initialized")

	// ErrNotInitialized indicates use of the subsystem, or of a target
	// core, before the corresponding initialization completed.
	ErrNotInitialized = errors.New("cpu: not initialized")
)
