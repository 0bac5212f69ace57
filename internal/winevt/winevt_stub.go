//go:build !windows

// Package winevt is the Windows-only binding to the Evt* event log
// API. On other platforms this stub keeps the tree compiling so the
// portable packages and their tests build everywhere. Channel
// enumeration and reading report that the platform is unsupported; the
// single-instance guard always succeeds.
package winevt

import (
	"sync/atomic"

	"github.com/Swatto86/EventSleuth/internal/model"
	"github.com/Swatto86/EventSleuth/internal/reader"
)

// EnumerateChannels is unavailable off Windows.
func EnumerateChannels() ([]string, error) {
	return nil, &model.ChannelEnumError{Detail: "event log API is only available on Windows"}
}

// Source is the stub event source; every Start reports an error for
// its channel.
type Source struct{}

// NewSource returns the stub event source.
func NewSource() *Source { return &Source{} }

func (s *Source) Start(opts reader.Options, cancel *atomic.Bool, tx chan<- reader.Message) {
	tx <- reader.Error{
		Channel: opts.Channel,
		Kind:    reader.KindUnknown,
		Message: "event log API is only available on Windows",
	}
}

// AcquireSingleInstance always succeeds off Windows.
func AcquireSingleInstance(string) (release func(), ok bool, err error) {
	return func() {}, true, nil
}
