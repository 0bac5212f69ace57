package reader

import (
	"sync/atomic"
	"time"
)

// Options parameterise a single reader run against one source.
type Options struct {
	// Channel is the channel name, or the .evtx path when FromFile is
	// set. It is echoed in every message.
	Channel string

	// FromFile selects the file-path query flag instead of a live
	// channel query.
	FromFile bool

	// TimeFrom and TimeTo are pushed into the XPath as inclusive
	// bounds. All other filter predicates are applied in memory.
	TimeFrom *time.Time
	TimeTo   *time.Time

	// Since, when set, replaces TimeFrom with a strict lower bound for
	// live-tail resume.
	Since *time.Time

	// MaxEvents caps how many events this reader emits. The caller is
	// expected to have clamped it already.
	MaxEvents int

	// ReverseChrono asks the OS query for newest-first ordering.
	ReverseChrono bool
}

// EventSource produces the event stream for one source. Implementations
// must emit exactly one terminal message (Complete or Error) on tx,
// check cancel at least once per batch and before each send, and
// release every OS resource they hold on all exit paths.
//
// Sends on tx block when the queue is full; that blocking is the
// back-pressure contract, so implementations must not buffer past one
// batch.
type EventSource interface {
	Start(opts Options, cancel *atomic.Bool, tx chan<- Message)
}
