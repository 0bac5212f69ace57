//go:build windows

// Package winevt is the Windows-only binding to the Evt* event log API
// in wevtapi.dll. It implements channel enumeration, the channel and
// file readers behind reader.EventSource, and the single-instance
// guard.
//
// Every opaque OS handle is wrapped in a Handle with a single owner
// that releases it on all exit paths.
package winevt

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Evt* API flags and codes.
const (
	evtQueryChannelPath      = 0x1
	evtQueryFilePath         = 0x2
	evtQueryForwardDirection = 0x100
	evtQueryReverseDirection = 0x200

	evtRenderEventXML = 1

	evtFormatMessageEvent = 1

	errorNoMoreItems        = 259
	errorInsufficientBuffer = 122
)

var (
	wevtapi = windows.NewLazySystemDLL("wevtapi.dll")

	procEvtQuery                 = wevtapi.NewProc("EvtQuery")
	procEvtNext                  = wevtapi.NewProc("EvtNext")
	procEvtClose                 = wevtapi.NewProc("EvtClose")
	procEvtRender                = wevtapi.NewProc("EvtRender")
	procEvtFormatMessage         = wevtapi.NewProc("EvtFormatMessage")
	procEvtOpenPublisherMetadata = wevtapi.NewProc("EvtOpenPublisherMetadata")
	procEvtOpenChannelEnum       = wevtapi.NewProc("EvtOpenChannelEnum")
	procEvtNextChannelPath       = wevtapi.NewProc("EvtNextChannelPath")
)

// errnoCode extracts the Win32 error code from a syscall error.
func errnoCode(err error) uint32 {
	if errno, ok := err.(syscall.Errno); ok {
		return uint32(errno)
	}
	return 0
}

// hresultOf promotes a Win32 code to its HRESULT form for error
// reporting, matching how the codes appear in Windows tooling.
func hresultOf(code uint32) uint32 {
	if code == 0 || code > 0xFFFF {
		return code
	}
	return 0x80070000 | code
}

func evtQuery(path, query string, flags uint32) (Handle, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	queryPtr, err := windows.UTF16PtrFromString(query)
	if err != nil {
		return 0, err
	}

	r1, _, callErr := procEvtQuery.Call(
		0, // local session
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(queryPtr)),
		uintptr(flags),
	)
	if r1 == 0 {
		return 0, callErr
	}
	return Handle(r1), nil
}

// evtNext fetches up to len(handles) event handles, returning how many
// were written. A zero count with a nil error means end of stream.
func evtNext(query Handle, handles []Handle, timeoutMS uint32) (uint32, error) {
	var returned uint32
	r1, _, callErr := procEvtNext.Call(
		uintptr(query),
		uintptr(len(handles)),
		uintptr(unsafe.Pointer(&handles[0])),
		uintptr(timeoutMS),
		0,
		uintptr(unsafe.Pointer(&returned)),
	)
	if r1 == 0 {
		code := errnoCode(callErr)
		if code == errorNoMoreItems {
			return 0, nil
		}
		return 0, callErr
	}
	return returned, nil
}

func evtClose(h Handle) {
	if h != 0 {
		procEvtClose.Call(uintptr(h))
	}
}

// evtRender renders an event handle into buf as UTF-16 XML. On
// ERROR_INSUFFICIENT_BUFFER it reports the required size via needed.
func evtRender(event Handle, buf []uint16) (used uint32, needed uint32, err error) {
	var bufferUsed, propertyCount uint32
	r1, _, callErr := procEvtRender.Call(
		0,
		uintptr(event),
		evtRenderEventXML,
		uintptr(len(buf)*2),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&bufferUsed)),
		uintptr(unsafe.Pointer(&propertyCount)),
	)
	if r1 == 0 {
		if errnoCode(callErr) == errorInsufficientBuffer {
			return 0, bufferUsed, errInsufficientBuffer
		}
		return 0, 0, callErr
	}
	return bufferUsed, 0, nil
}

// evtFormatMessage formats the event's primary message string using the
// provider's metadata handle.
func evtFormatMessage(metadata, event Handle, buf []uint16) (used uint32, needed uint32, err error) {
	var bufferUsed uint32
	r1, _, callErr := procEvtFormatMessage.Call(
		uintptr(metadata),
		uintptr(event),
		0,
		0,
		0,
		evtFormatMessageEvent,
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&bufferUsed)),
	)
	if r1 == 0 {
		if errnoCode(callErr) == errorInsufficientBuffer {
			return 0, bufferUsed, errInsufficientBuffer
		}
		return 0, 0, callErr
	}
	return bufferUsed, 0, nil
}

func evtOpenPublisherMetadata(provider string) (Handle, error) {
	providerPtr, err := windows.UTF16PtrFromString(provider)
	if err != nil {
		return 0, err
	}
	r1, _, callErr := procEvtOpenPublisherMetadata.Call(
		0, // local session
		uintptr(unsafe.Pointer(providerPtr)),
		0, // no archive log path
		0, // default locale
		0,
	)
	if r1 == 0 {
		return 0, callErr
	}
	return Handle(r1), nil
}

func evtOpenChannelEnum() (Handle, error) {
	r1, _, callErr := procEvtOpenChannelEnum.Call(0, 0)
	if r1 == 0 {
		return 0, callErr
	}
	return Handle(r1), nil
}

// evtNextChannelPath reads the next channel name into buf, reporting
// the required size on ERROR_INSUFFICIENT_BUFFER.
func evtNextChannelPath(enum Handle, buf []uint16) (used uint32, needed uint32, err error) {
	var bufferUsed uint32
	r1, _, callErr := procEvtNextChannelPath.Call(
		uintptr(enum),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&bufferUsed)),
	)
	if r1 == 0 {
		switch errnoCode(callErr) {
		case errorNoMoreItems:
			return 0, 0, errNoMoreItems
		case errorInsufficientBuffer:
			return 0, bufferUsed, errInsufficientBuffer
		}
		return 0, 0, callErr
	}
	return bufferUsed, 0, nil
}

// utf16ToString converts a used-length UTF-16 buffer, stripping the
// trailing null terminator when present.
func utf16ToString(buf []uint16, used uint32) string {
	n := int(used)
	if n > len(buf) {
		n = len(buf)
	}
	if n > 0 && buf[n-1] == 0 {
		n--
	}
	return windows.UTF16ToString(buf[:n])
}
