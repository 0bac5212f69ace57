//go:build windows

package winevt

import "errors"

// Handle is an opaque EVT_HANDLE. Each handle has exactly one owner,
// which must call Close on every exit path. Handles are never shared
// between goroutines.
type Handle uintptr

// Close releases the handle. Safe on the zero handle and after a
// previous Close.
func (h *Handle) Close() {
	if *h != 0 {
		evtClose(*h)
		*h = 0
	}
}

// Sentinel errors used by the low-level wrappers.
var (
	errInsufficientBuffer = errors.New("insufficient buffer")
	errNoMoreItems        = errors.New("no more items")
)
