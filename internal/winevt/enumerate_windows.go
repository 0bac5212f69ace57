//go:build windows

package winevt

import (
	"errors"
	"fmt"

	"github.com/go-kit/log/level"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// EnumerateChannels lists every event log channel on the local host,
// sorted ascending and de-duplicated.
//
// Channels the caller cannot read are still listed; access errors
// surface later when the channel is actually queried. A failure to open
// the enumeration itself returns a ChannelEnumError.
func EnumerateChannels() ([]string, error) {
	enum, err := evtOpenChannelEnum()
	if err != nil {
		return nil, &model.ChannelEnumError{
			Detail: fmt.Sprintf("EvtOpenChannelEnum: %v", err),
		}
	}
	defer enum.Close()

	channels := make([]string, 0, 256)
	buf := make([]uint16, 512)

	for {
		used, needed, err := evtNextChannelPath(enum, buf)
		switch {
		case err == nil:
			if name := utf16ToString(buf, used); name != "" {
				channels = append(channels, name)
			}
		case errors.Is(err, errNoMoreItems):
			return sortChannels(channels), nil
		case errors.Is(err, errInsufficientBuffer):
			buf = make([]uint16, needed+64)
		default:
			// A mid-enumeration failure keeps what we have.
			level.Warn(pkgLogger()).Log("msg", "EvtNextChannelPath failed", "err", err)
			return sortChannels(channels), nil
		}
	}
}
