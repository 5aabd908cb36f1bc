// File: restricted/restricted.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Wrapper around the external virtualization-entry primitive. Entry is a
// one-shot, per-core, irreversible transition for the calling thread; a
// successful call yields a Token that downstream code can demand as proof
// the thread runs in restricted mode.

package restricted

import (
	"fmt"

	"github.com/AmberBraun/zygos/api"
)

// Primitive is the external entry call. It receives the core's memory
// window base address and returns zero on success or a negative errno-style
// code on failure.
type Primitive func(base uintptr) int32

// Error codes the wrapped primitive is known to report.
const (
	codeUnsupported int32 = -38 // ENOSYS
	codePermission  int32 = -1  // EPERM
	codeNoDevice    int32 = -19 // ENODEV
	codeNoMemory    int32 = -12 // ENOMEM
)

// EntryError wraps a non-zero return of the entry primitive.
type EntryError struct {
	Code int32
}

func (e *EntryError) Error() string {
	switch e.Code {
	case codePermission:
		return "restricted: entry denied, insufficient privileges"
	case codeNoDevice:
		return "restricted: virtualization hardware unavailable"
	case codeNoMemory:
		return "restricted: entry primitive out of memory"
	case codeUnsupported:
		return "restricted: no entry backend registered"
	default:
		return fmt.Sprintf("restricted: entry primitive failed, code %d", e.Code)
	}
}

// Unwrap ties every entry failure to the subsystem's taxonomy.
func (e *EntryError) Unwrap() error {
	return api.ErrPrivilegedEntry
}

// Token proves the holding thread entered restricted mode. The zero Token
// is invalid.
type Token struct {
	base uintptr
}

// Valid reports whether the token came from a successful entry.
func (t Token) Valid() bool {
	return t.base != 0
}

// backend is the process-wide entry primitive, installed by the
// virtualization layer during early boot. Without one, every entry fails.
var backend Primitive = func(uintptr) int32 { return codeUnsupported }

// RegisterBackend installs the entry primitive. Call before any core
// bring-up; there is no unregister.
func RegisterBackend(p Primitive) {
	backend = p
}

// Default returns the registered entry primitive.
func Default() Primitive {
	return backend
}

// Enter invokes the primitive with a window base address. It must never be
// called while holding a shared-state lock: the primitive may block or
// fault.
func Enter(p Primitive, base uintptr) (Token, error) {
	if code := p(base); code != 0 {
		return Token{}, &EntryError{Code: code}
	}
	return Token{base: base}, nil
}
