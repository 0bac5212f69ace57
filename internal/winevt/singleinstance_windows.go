//go:build windows

package winevt

import (
	"errors"

	"golang.org/x/sys/windows"
)

// AcquireSingleInstance creates the named mutex that guards against a
// second EventSleuth process. It returns ok=false when another instance
// already holds the mutex, in which case the process must exit without
// touching user storage. The release function must be called on
// shutdown when ok is true.
func AcquireSingleInstance(name string) (release func(), ok bool, err error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, false, err
	}

	h, err := windows.CreateMutex(nil, false, namePtr)
	if err != nil {
		if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
			if h != 0 {
				windows.CloseHandle(h)
			}
			return nil, false, nil
		}
		return nil, false, err
	}

	return func() { windows.CloseHandle(h) }, true, nil
}
