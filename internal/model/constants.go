package model

import "time"

// Centralised tuning constants. Everything that is a magic number
// elsewhere in the codebase lives here.
const (
	// BatchSize is the number of event handles requested per EvtNext
	// call. Larger batches reduce API overhead; 200 balances memory
	// against throughput.
	BatchSize = 200

	// EvtNextTimeout is the timeout passed to EvtNext. A finite timeout
	// keeps the reader responsive to cancellation.
	EvtNextTimeout = 1000 * time.Millisecond

	// RenderBufferSize is the initial EvtRender buffer size in UTF-16
	// units. The buffer grows on ERROR_INSUFFICIENT_BUFFER and is
	// reused across all events in a channel read.
	RenderBufferSize = 8192

	// FormatBufferSize is the initial EvtFormatMessage buffer size in
	// UTF-16 units, with the same grow policy as RenderBufferSize.
	FormatBufferSize = 2048

	// ChannelBound is the capacity of the queue between each reader and
	// the session coordinator. Senders block when it is full; that
	// blocking is the only back-pressure mechanism.
	ChannelBound = 256

	// DefaultMaxEventsPerChannel caps how many events a single reader
	// loads before stopping.
	DefaultMaxEventsPerChannel = 500_000

	// MinMaxEventsPerChannel and MaxMaxEventsPerChannel bound the
	// user-configurable per-channel limit.
	MinMaxEventsPerChannel = 1_000
	MaxMaxEventsPerChannel = 10_000_000

	// MaxTotalEventsCap bounds the in-memory event list during live
	// tail, which appends without clearing. Oldest events are evicted
	// past this point. Generous (4x the default per-channel max) so a
	// plain full load is never trimmed.
	MaxTotalEventsCap = DefaultMaxEventsPerChannel * 4

	// MaxRetryAttempts is the retry count for transient Windows API
	// errors, with exponential backoff from RetryBaseDelay.
	MaxRetryAttempts = 3
	RetryBaseDelay   = 50 * time.Millisecond

	// FilterDebounce is the idle period before text filter inputs
	// trigger a re-filter. Checkboxes and numeric inputs apply
	// immediately.
	FilterDebounce = 150 * time.Millisecond

	// LiveTailInterval is the period between incremental tail queries.
	LiveTailInterval = 5 * time.Second

	// MaxErrors caps the per-channel error ring buffer.
	MaxErrors = 200
)

// Application identity.
const (
	AppName     = "EventSleuth"
	AppDataDir  = "EventSleuth"
	LogDirName  = "logs"
	LogFileName = "eventsleuth.log"

	// MaxLogFileSize is the rotation threshold for the debug log.
	MaxLogFileSize = 5 * 1024 * 1024

	// SingleInstanceMutexName is the named OS mutex acquired at process
	// start. Failure to acquire means another instance is running.
	SingleInstanceMutexName = "Global\\EventSleuthSingleInstance"
)

// DefaultChannels are selected on first launch, before the user has
// saved a source selection.
var DefaultChannels = []string{"Application", "System"}

// ClampMaxEvents bounds a user-supplied per-channel event limit.
func ClampMaxEvents(n int) int {
	if n < MinMaxEventsPerChannel {
		return MinMaxEventsPerChannel
	}
	if n > MaxMaxEventsPerChannel {
		return MaxMaxEventsPerChannel
	}
	return n
}
