// Package session implements the coordinator that owns the in-memory
// event list. It drives one reader per selected source, drains their
// shared bounded queue each frame, applies the in-memory filter and
// sort, aggregates statistics, and hands the consumer an immutable
// snapshot per frame.
//
// All state is owned by the Session and guarded by its mutex; the
// consumer only ever sees copies. The per-frame drain is non-blocking,
// so the coordinator itself has no suspension points.
package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Swatto86/EventSleuth/internal/filter"
	"github.com/Swatto86/EventSleuth/internal/model"
	"github.com/Swatto86/EventSleuth/internal/reader"
)

// State names for the session lifecycle:
// Idle → Loading → Ready → {Loading | Tailing | Idle}.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Tailing
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Tailing:
		return "tailing"
	default:
		return "idle"
	}
}

// ChannelError is one entry of the bounded error list.
type ChannelError struct {
	Channel string `json:"channel"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ChannelProgress is the per-source progress exposed in snapshots.
type ChannelProgress struct {
	Count   int  `json:"count"`
	Percent int  `json:"percent"`
	Done    bool `json:"done"`
}

// Session coordinates readers for one set of sources.
type Session struct {
	id     string
	source reader.EventSource
	logger log.Logger

	mu sync.Mutex

	state         State
	channels      []string
	fromFile      bool
	maxPerChannel int
	reverseChrono bool

	allEvents     []*model.EventRecord
	filteredIndex []int
	bookmarks     map[int]struct{}
	errors        []ChannelError
	stats         Stats

	filterState       *filter.State
	sortColumn        SortColumn
	sortAscending     bool
	showBookmarksOnly bool
	selection         int

	filterDirty bool

	rx      chan reader.Message
	cancel  *atomic.Bool
	pending map[string]bool
	prog    map[string]ChannelProgress

	lastSeen     map[string]time.Time
	boundaryKeys map[string]map[string]struct{}

	loadStarted    time.Time
	elapsed        time.Duration
	securityDenied bool

	tailing      bool
	tailInterval time.Duration
	lastTail     time.Time
	tailRunning  bool
}

// New creates an idle session backed by the given event source.
func New(source reader.EventSource, logger log.Logger) *Session {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Session{
		id:            uuid.NewString(),
		source:        source,
		logger:        logger,
		bookmarks:     make(map[int]struct{}),
		filterState:   filter.MatchAll(),
		sortColumn:    ColTimestamp,
		sortAscending: false,
		selection:     -1,
		lastSeen:      make(map[string]time.Time),
		boundaryKeys:  make(map[string]map[string]struct{}),
		prog:          make(map[string]ChannelProgress),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start transitions to Loading: any prior readers are cancelled, the
// event list, bookmarks, errors, and stats are cleared, and one reader
// is spawned per selected source.
func (s *Session) Start(channels []string, f *filter.State, maxPerChannel int, reverseChrono bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(channels, false, f, maxPerChannel, reverseChrono)
}

// StartFile is Start for a single .evtx file path.
func (s *Session) StartFile(path string, f *filter.State, maxPerChannel int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked([]string{path}, true, f, maxPerChannel, false)
}

func (s *Session) startLocked(channels []string, fromFile bool, f *filter.State, maxPerChannel int, reverseChrono bool) {
	s.cancelReadersLocked()

	if f == nil {
		f = filter.MatchAll()
	}

	s.channels = append([]string(nil), channels...)
	s.fromFile = fromFile
	s.maxPerChannel = model.ClampMaxEvents(maxPerChannel)
	s.reverseChrono = reverseChrono
	s.filterState = f

	// A reload invalidates every index-based piece of state.
	s.allEvents = nil
	s.filteredIndex = nil
	s.bookmarks = make(map[int]struct{})
	s.showBookmarksOnly = false
	s.selection = -1
	s.errors = nil
	s.stats = Stats{}
	s.securityDenied = false
	s.elapsed = 0
	s.lastSeen = make(map[string]time.Time)
	s.boundaryKeys = make(map[string]map[string]struct{})
	s.filterDirty = true

	if len(channels) == 0 {
		s.prog = make(map[string]ChannelProgress)
		s.state = Idle
		return
	}

	s.loadStarted = time.Now()
	s.state = Loading
	s.spawnReadersLocked(nil)

	level.Info(s.logger).Log("msg", "session loading", "session", s.id,
		"sources", len(channels), "max_per_channel", s.maxPerChannel)
}

// spawnReadersLocked launches one reader goroutine per channel on a
// fresh queue. since, when non-nil, arms the readers for live tail
// using the per-channel last-seen timestamps.
func (s *Session) spawnReadersLocked(since map[string]time.Time) {
	tx := make(chan reader.Message, model.ChannelBound)
	cancel := new(atomic.Bool)

	s.rx = tx
	s.cancel = cancel
	s.pending = make(map[string]bool, len(s.channels))
	if since == nil {
		s.prog = make(map[string]ChannelProgress, len(s.channels))
	}

	var g errgroup.Group
	for _, ch := range s.channels {
		s.pending[ch] = true

		opts := reader.Options{
			Channel:       ch,
			FromFile:      s.fromFile,
			TimeFrom:      s.filterState.TimeFrom(),
			TimeTo:        s.filterState.TimeTo(),
			MaxEvents:     s.maxPerChannel,
			ReverseChrono: s.reverseChrono,
		}
		if since != nil {
			if last, ok := since[ch]; ok && !last.IsZero() {
				t := last
				opts.Since = &t
			}
			// New events must keep flowing even past a configured
			// upper bound filter.
			opts.TimeTo = nil
			// Tail batches must arrive oldest-first: the boundary
			// dedupe relies on re-delivered records preceding records
			// that advance the last-seen timestamp.
			opts.ReverseChrono = false
		}

		g.Go(func() error {
			s.source.Start(opts, cancel, tx)
			return nil
		})
	}

	// Close the queue once every reader has exited so an abandoned
	// generation can be drained to completion.
	go func() {
		_ = g.Wait()
		close(tx)
	}()
}

// cancelReadersLocked raises the cancel flag for the current reader
// generation and abandons its queue. A background drain keeps the old
// readers from blocking on a full queue until they observe the flag.
func (s *Session) cancelReadersLocked() {
	if s.cancel != nil {
		s.cancel.Store(true)
	}
	if s.rx != nil {
		old := s.rx
		go func() {
			for range old {
			}
		}()
	}
	s.rx = nil
	s.cancel = nil
	s.pending = nil
	s.tailRunning = false
}

// Cancel requests cancellation of all running readers and returns
// immediately. Idempotent. Readers drain and emit their terminal
// message, which the per-frame drain consumes.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel.Store(true)
	}
}

// EnableTail arms periodic live tail. The interval defaults to the
// standard one when non-positive. Takes effect once the current load
// completes.
func (s *Session) EnableTail(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if interval <= 0 {
		interval = model.LiveTailInterval
	}
	s.tailing = true
	s.tailInterval = interval
	if s.state == Ready {
		s.state = Tailing
	}
}

// DisableTail stops periodic re-query. Events already appended remain.
func (s *Session) DisableTail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tailing = false
	if s.state == Tailing {
		s.state = Ready
	}
}

// UpdateFilter replaces the active filter and re-applies it in memory.
// The OS is never re-queried.
func (s *Session) UpdateFilter(f *filter.State) {
	if f == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterState = f
	s.filterDirty = true
}

// SetSort changes the active sort column and direction.
func (s *Session) SetSort(col SortColumn, ascending bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !col.valid() {
		return
	}
	s.sortColumn = col
	s.sortAscending = ascending
	s.filterDirty = true
}

// SetShowBookmarksOnly restricts the filtered view to bookmarked
// events.
func (s *Session) SetShowBookmarksOnly(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showBookmarksOnly = on
	s.filterDirty = true
}

// Select records the consumer's current selection as an index into
// allEvents, or -1 to clear.
func (s *Session) Select(eventIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if eventIndex < -1 || eventIndex >= len(s.allEvents) {
		return
	}
	s.selection = eventIndex
}

// ToggleBookmark flips the bookmark on an event index. Returns the new
// bookmark state; out-of-range indices are ignored.
func (s *Session) ToggleBookmark(eventIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if eventIndex < 0 || eventIndex >= len(s.allEvents) {
		return false
	}
	if _, ok := s.bookmarks[eventIndex]; ok {
		delete(s.bookmarks, eventIndex)
		if s.showBookmarksOnly {
			s.filterDirty = true
		}
		return false
	}
	s.bookmarks[eventIndex] = struct{}{}
	if s.showBookmarksOnly {
		s.filterDirty = true
	}
	return true
}

// Record returns the event at an allEvents index, or nil.
func (s *Session) Record(eventIndex int) *model.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if eventIndex < 0 || eventIndex >= len(s.allEvents) {
		return nil
	}
	return s.allEvents[eventIndex]
}

// FilteredRecords copies the currently filtered, sorted records for
// export.
func (s *Session) FilteredRecords() []*model.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.EventRecord, 0, len(s.filteredIndex))
	for _, idx := range s.filteredIndex {
		out = append(out, s.allEvents[idx])
	}
	return out
}

// Frame performs the per-frame duties (drain the queue, re-arm live
// tail, rebuild the filtered index when dirty) and returns the
// snapshot for this frame.
func (s *Session) Frame() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drainLocked()
	s.maybeTailLocked()

	if s.filterDirty {
		s.applyFilterLocked()
	}

	return s.snapshotLocked()
}

// drainLocked consumes every queued reader message without blocking.
func (s *Session) drainLocked() {
	if s.rx == nil {
		return
	}
	for {
		select {
		case msg, ok := <-s.rx:
			if !ok {
				s.rx = nil
				return
			}
			s.handleMessageLocked(msg)
		default:
			return
		}
	}
}

func (s *Session) handleMessageLocked(msg reader.Message) {
	switch m := msg.(type) {
	case reader.EventBatch:
		s.appendBatchLocked(m)

	case reader.Progress:
		p := s.prog[m.Channel]
		p.Count = m.Count
		p.Percent = progressPercent(m.Count, s.maxPerChannel)
		s.prog[m.Channel] = p

	case reader.Complete:
		delete(s.pending, m.Channel)
		p := s.prog[m.Channel]
		p.Count = m.Total
		p.Done = true
		if !m.Cancelled {
			p.Percent = 100
		}
		s.prog[m.Channel] = p
		if m.Channel == "Security" && !m.Cancelled {
			s.securityDenied = false
		}
		s.onReaderTerminalLocked()

	case reader.Error:
		delete(s.pending, m.Channel)
		p := s.prog[m.Channel]
		p.Done = true
		s.prog[m.Channel] = p
		s.recordErrorLocked(ChannelError{
			Channel: m.Channel,
			Kind:    m.Kind.String(),
			Message: m.Message,
		})
		if m.Channel == "Security" && m.Kind == reader.KindAccessDenied {
			s.securityDenied = true
		}
		s.onReaderTerminalLocked()
	}
}

// onReaderTerminalLocked handles the Loading → Ready transition once
// every source has emitted Complete or Error.
func (s *Session) onReaderTerminalLocked() {
	if len(s.pending) != 0 {
		return
	}
	s.tailRunning = false

	if s.state == Loading {
		s.elapsed = time.Since(s.loadStarted)
		s.filterDirty = true
		if s.tailing {
			s.state = Tailing
		} else {
			s.state = Ready
		}
		level.Info(s.logger).Log("msg", "load complete", "session", s.id,
			"events", len(s.allEvents), "elapsed", s.elapsed)
	}
}

func (s *Session) appendBatchLocked(m reader.EventBatch) {
	isTail := s.state == Tailing || s.tailRunning

	for _, rec := range m.Records {
		if s.dedupeLocked(m.Channel, rec, isTail) {
			continue
		}
		s.allEvents = append(s.allEvents, rec)
	}
	s.filterDirty = true

	// Live tail appends without ever clearing, so enforce the total
	// memory cap by evicting the oldest events. Index-based state
	// cannot be cheaply remapped after the shift, so selection and
	// bookmarks are dropped.
	if isTail && len(s.allEvents) > model.MaxTotalEventsCap {
		evict := len(s.allEvents) - model.MaxTotalEventsCap
		s.allEvents = append([]*model.EventRecord(nil), s.allEvents[evict:]...)
		s.filteredIndex = nil
		s.selection = -1
		if len(s.bookmarks) > 0 {
			s.bookmarks = make(map[int]struct{})
			s.showBookmarksOnly = false
			level.Debug(s.logger).Log("msg", "cleared bookmarks after eviction",
				"evicted", evict)
		}
		level.Debug(s.logger).Log("msg", "evicted oldest events at live-tail cap",
			"evicted", evict, "cap", model.MaxTotalEventsCap)
	}
}

// dedupeLocked tracks the newest timestamp per channel plus the
// identity keys of records at that exact timestamp. Live-tail queries
// use a strict lower bound at millisecond precision, so records sharing
// the boundary millisecond can be re-delivered; the key set drops them.
func (s *Session) dedupeLocked(channel string, rec *model.EventRecord, isTail bool) bool {
	key := fmt.Sprintf("%s|%d|%d", rec.ProviderName, rec.RecordID, rec.EventID)
	last := s.lastSeen[channel]

	switch {
	case rec.Timestamp.After(last):
		s.lastSeen[channel] = rec.Timestamp
		s.boundaryKeys[channel] = map[string]struct{}{key: {}}
	case rec.Timestamp.Equal(last):
		keys := s.boundaryKeys[channel]
		if keys == nil {
			keys = make(map[string]struct{})
			s.boundaryKeys[channel] = keys
		}
		if _, dup := keys[key]; dup && isTail {
			return true
		}
		keys[key] = struct{}{}
	}
	return false
}

func (s *Session) recordErrorLocked(e ChannelError) {
	// Ring semantics: the list is capped and the oldest entry drops.
	if len(s.errors) >= model.MaxErrors {
		s.errors = append(s.errors[1:], e)
		return
	}
	s.errors = append(s.errors, e)
}

// maybeTailLocked re-arms the tail readers when the interval has
// elapsed and no readers are running.
func (s *Session) maybeTailLocked() {
	if !s.tailing || s.state != Tailing || len(s.pending) > 0 || s.fromFile {
		return
	}
	if !s.lastTail.IsZero() && time.Since(s.lastTail) < s.tailInterval {
		return
	}
	s.lastTail = time.Now()
	s.tailRunning = true
	s.spawnReadersLocked(s.lastSeen)
	level.Debug(s.logger).Log("msg", "live tail re-armed", "session", s.id)
}

func progressPercent(count, max int) int {
	if max <= 0 {
		return 0
	}
	pct := count * 100 / max
	if pct > 100 {
		pct = 100
	}
	return pct
}
