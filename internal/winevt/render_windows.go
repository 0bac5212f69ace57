//go:build windows

package winevt

import (
	"errors"
	"strings"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// renderEventXML renders one event handle to its XML string.
//
// buf is owned by the caller and reused across every event in a channel
// read; it grows on ERROR_INSUFFICIENT_BUFFER. One grow retry is
// allowed; if the second attempt still reports insufficient buffer the
// event is treated as unrenderable.
func renderEventXML(event Handle, buf *[]uint16) (string, error) {
	if len(*buf) < model.RenderBufferSize {
		*buf = make([]uint16, model.RenderBufferSize)
	}

	for attempt := 0; ; attempt++ {
		used, needed, err := evtRender(event, *buf)
		if err == nil {
			// used is in bytes for XML rendering.
			return utf16ToString(*buf, used/2), nil
		}
		if errors.Is(err, errInsufficientBuffer) && attempt == 0 {
			*buf = make([]uint16, needed/2+1)
			continue
		}
		return "", &model.WindowsAPIError{
			HResult: hresultOf(errnoCode(err)),
			Context: "EvtRender",
		}
	}
}

// publisherCache maps provider names to their opened metadata handles.
// A zero handle records a provider whose metadata failed to open so the
// open is not retried per event. The owning reader must call close
// before returning, on every path.
type publisherCache map[string]Handle

func (c publisherCache) close() {
	for _, h := range c {
		h.Close()
	}
	clear(c)
}

// formatMessage renders the provider-formatted message for an event.
//
// Returns ok=false when formatting is not possible (provider metadata
// missing, message table incomplete), which is common for events from
// uninstalled providers; the caller falls back to event data.
func formatMessage(event Handle, provider string, cache publisherCache, buf *[]uint16) (string, bool) {
	if provider == "" {
		return "", false
	}

	meta, seen := cache[provider]
	if !seen {
		h, err := evtOpenPublisherMetadata(provider)
		if err != nil {
			cache[provider] = 0
			return "", false
		}
		cache[provider] = h
		meta = h
	}
	if meta == 0 {
		return "", false
	}

	if len(*buf) < model.FormatBufferSize {
		*buf = make([]uint16, model.FormatBufferSize)
	}

	for attempt := 0; ; attempt++ {
		used, needed, err := evtFormatMessage(meta, event, *buf)
		if err == nil {
			msg := strings.TrimSpace(utf16ToString(*buf, used))
			return msg, msg != ""
		}
		if errors.Is(err, errInsufficientBuffer) && attempt == 0 {
			*buf = make([]uint16, needed+1)
			continue
		}
		return "", false
	}
}

// eventDataFallback builds a message from the record's event data when
// provider formatting fails: "name=value" pairs joined by "; ".
func eventDataFallback(rec *model.EventRecord) string {
	if len(rec.EventData) == 0 {
		return ""
	}
	parts := make([]string, 0, len(rec.EventData))
	for _, d := range rec.EventData {
		if d.Name == "" {
			parts = append(parts, d.Value)
			continue
		}
		parts = append(parts, d.Name+"="+d.Value)
	}
	return strings.Join(parts, "; ")
}
