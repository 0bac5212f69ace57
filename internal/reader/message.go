// Package reader defines the contract between event readers and the
// session coordinator: the message stream, the EventSource interface,
// and XPath generation for server-side time pre-filtering.
//
// The Windows implementation lives in internal/winevt; tests substitute
// in-memory sources that feed synthetic records.
package reader

import (
	"time"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// Kind classifies a per-channel reader error.
type Kind int

const (
	KindUnknown Kind = iota
	KindAccessDenied
	KindNotFound
	KindTransient
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindAccessDenied:
		return "access-denied"
	case KindNotFound:
		return "not-found"
	case KindTransient:
		return "transient"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Message is a reader-to-coordinator message. Exactly one of
// EventBatch, Progress, Complete, or Error.
type Message interface {
	// MessageChannel returns the source channel the message concerns.
	MessageChannel() string
}

// EventBatch carries parsed records ready to append to the master list.
type EventBatch struct {
	Channel string
	Records []*model.EventRecord
}

// Progress reports how many events the channel's reader has emitted so
// far. Sent once per batch.
type Progress struct {
	Channel string
	Count   int
}

// Complete is the terminal success message for a channel. Cancelled is
// set when the reader stopped because the session's cancel flag was
// raised.
type Complete struct {
	Channel   string
	Total     int
	Elapsed   time.Duration
	Cancelled bool
}

// Error is the terminal failure message for a channel. The session
// continues with the remaining channels.
type Error struct {
	Channel string
	Kind    Kind
	Message string
}

func (m EventBatch) MessageChannel() string { return m.Channel }
func (m Progress) MessageChannel() string   { return m.Channel }
func (m Complete) MessageChannel() string   { return m.Channel }
func (m Error) MessageChannel() string      { return m.Channel }

// Win32 / HRESULT codes the classifier understands.
const (
	codeAccessDenied    = 5
	codeFileNotFound    = 2
	codePathNotFound    = 3
	codeTimeout         = 1460
	codeRPCUnavailable  = 1722
	codeRPCCallFailed   = 1726
	codeChannelNotFound = 15007
)

// ClassifyCode maps a Windows error code (raw Win32 or HRESULT-wrapped
// Win32) to an error kind. Transient kinds are eligible for retry.
func ClassifyCode(code uint32) Kind {
	// HRESULT_FROM_WIN32 wraps codes as 0x8007xxxx.
	if code>>16 == 0x8007 {
		code &= 0xFFFF
	}
	switch code {
	case codeAccessDenied:
		return KindAccessDenied
	case codeFileNotFound, codePathNotFound, codeChannelNotFound:
		return KindNotFound
	case codeTimeout, codeRPCUnavailable, codeRPCCallFailed:
		return KindTransient
	default:
		return KindUnknown
	}
}
