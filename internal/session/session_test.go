package session

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Swatto86/EventSleuth/internal/filter"
	"github.com/Swatto86/EventSleuth/internal/model"
	"github.com/Swatto86/EventSleuth/internal/reader"
)

// fakeSource feeds canned records per channel, honouring the Since
// bound and the cancel flag like the real reader.
type fakeSource struct {
	mu      chan struct{} // buffered(1) as a mutex usable from Start
	records map[string][]*model.EventRecord
	fail    map[string]reader.Error
}

func newFakeSource() *fakeSource {
	f := &fakeSource{
		mu:      make(chan struct{}, 1),
		records: make(map[string][]*model.EventRecord),
		fail:    make(map[string]reader.Error),
	}
	f.mu <- struct{}{}
	return f
}

func (f *fakeSource) add(channel string, recs ...*model.EventRecord) {
	<-f.mu
	f.records[channel] = append(f.records[channel], recs...)
	f.mu <- struct{}{}
}

func (f *fakeSource) Start(opts reader.Options, cancel *atomic.Bool, tx chan<- reader.Message) {
	start := time.Now()

	if e, ok := f.fail[opts.Channel]; ok {
		tx <- e
		return
	}

	<-f.mu
	all := append([]*model.EventRecord(nil), f.records[opts.Channel]...)
	f.mu <- struct{}{}

	var batch []*model.EventRecord
	for _, rec := range all {
		// The real query's strict bound is millisecond-precision while
		// the log stores finer timestamps, so records in the boundary
		// millisecond can be re-delivered. Model that worst case.
		if opts.Since != nil && rec.Timestamp.Before(*opts.Since) {
			continue
		}
		if opts.MaxEvents > 0 && len(batch) >= opts.MaxEvents {
			break
		}
		batch = append(batch, rec)
	}

	if cancel.Load() {
		tx <- reader.Complete{Channel: opts.Channel, Cancelled: true, Elapsed: time.Since(start)}
		return
	}
	if len(batch) > 0 {
		tx <- reader.EventBatch{Channel: opts.Channel, Records: batch}
		tx <- reader.Progress{Channel: opts.Channel, Count: len(batch)}
	}
	tx <- reader.Complete{Channel: opts.Channel, Total: len(batch), Elapsed: time.Since(start)}
}

func rec(channel string, id uint32, lvl uint8, provider string, ts time.Time, recordID uint64) *model.EventRecord {
	return &model.EventRecord{
		Channel:      channel,
		EventID:      id,
		Level:        lvl,
		LevelName:    model.LevelName(lvl),
		ProviderName: provider,
		Timestamp:    ts,
		Computer:     "TEST-PC",
		Message:      "event",
		RecordID:     recordID,
	}
}

func waitReady(t *testing.T, s *Session) Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := s.Frame()
		if snap.State == "ready" || snap.State == "tailing" {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("session never became ready (state %s)", snap.State)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func base() time.Time {
	return time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
}

func TestLoadAppendsAndCompletes(t *testing.T) {
	src := newFakeSource()
	src.add("Application",
		rec("Application", 100, 2, "SvcA", base(), 1),
		rec("Application", 101, 4, "SvcB", base().Add(time.Second), 2),
	)
	src.add("System",
		rec("System", 7036, 4, "SCM", base().Add(2*time.Second), 1),
	)

	s := New(src, nil)
	s.Start([]string{"Application", "System"}, filter.MatchAll(), 10_000, false)

	snap := waitReady(t, s)
	if snap.TotalCount != 3 {
		t.Fatalf("TotalCount = %d, want 3", snap.TotalCount)
	}
	if snap.FilteredCount != 3 {
		t.Fatalf("FilteredCount = %d, want 3", snap.FilteredCount)
	}
	for _, ch := range []string{"Application", "System"} {
		p, ok := snap.Progress[ch]
		if !ok || !p.Done || p.Percent != 100 {
			t.Errorf("progress for %s = %+v, want done at 100%%", ch, p)
		}
	}
}

func TestUpdateFilterInMemory(t *testing.T) {
	src := newFakeSource()
	src.add("Application",
		rec("Application", 100, 2, "SvcA", base(), 1),
		rec("Application", 150, 2, "SvcA", base().Add(time.Second), 2),
		rec("Application", 200, 4, "SvcB", base().Add(2*time.Second), 3),
	)

	s := New(src, nil)
	s.Start([]string{"Application"}, filter.MatchAll(), 10_000, false)
	waitReady(t, s)

	st, err := filter.Compile(filter.Input{EventIDSpec: "100-200,!150"})
	if err != nil {
		t.Fatal(err)
	}
	s.UpdateFilter(st)

	snap := s.Frame()
	if snap.FilteredCount != 2 {
		t.Fatalf("FilteredCount = %d, want 2 after filter", snap.FilteredCount)
	}
	if snap.TotalCount != 3 {
		t.Fatalf("TotalCount must be unchanged, got %d", snap.TotalCount)
	}
	for _, idx := range snap.FilteredIndex {
		if e := s.Record(idx); e.EventID == 150 {
			t.Error("excluded id 150 is present in the filtered view")
		}
	}
}

func TestSortColumnAndDirection(t *testing.T) {
	src := newFakeSource()
	src.add("Application",
		rec("Application", 3, 4, "C", base().Add(2*time.Second), 1),
		rec("Application", 1, 4, "A", base(), 2),
		rec("Application", 2, 4, "B", base().Add(time.Second), 3),
	)

	s := New(src, nil)
	s.Start([]string{"Application"}, filter.MatchAll(), 10_000, false)
	waitReady(t, s)

	s.SetSort(ColEventID, true)
	snap := s.Frame()

	var ids []uint32
	for _, idx := range snap.FilteredIndex {
		ids = append(ids, s.Record(idx).EventID)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("ascending event-id sort got %v", ids)
	}

	s.SetSort(ColEventID, false)
	snap = s.Frame()
	if first := s.Record(snap.FilteredIndex[0]).EventID; first != 3 {
		t.Fatalf("descending sort should lead with 3, got %d", first)
	}
}

func TestBookmarksClearedOnReload(t *testing.T) {
	src := newFakeSource()
	src.add("Application", rec("Application", 1, 4, "P", base(), 1))

	s := New(src, nil)
	s.Start([]string{"Application"}, filter.MatchAll(), 10_000, false)
	waitReady(t, s)

	if !s.ToggleBookmark(0) {
		t.Fatal("ToggleBookmark(0) should set the bookmark")
	}
	snap := s.Frame()
	if len(snap.Bookmarks) != 1 || snap.Bookmarks[0] != 0 {
		t.Fatalf("Bookmarks = %v", snap.Bookmarks)
	}

	// Bookmarked indices must always be valid.
	for _, b := range snap.Bookmarks {
		if b < 0 || b >= snap.TotalCount {
			t.Fatalf("bookmark %d out of range", b)
		}
	}

	s.Start([]string{"Application"}, filter.MatchAll(), 10_000, false)
	snap = waitReady(t, s)
	if len(snap.Bookmarks) != 0 {
		t.Fatalf("bookmarks must clear on reload, got %v", snap.Bookmarks)
	}
}

func TestBookmarkOutOfRangeIgnored(t *testing.T) {
	src := newFakeSource()
	src.add("Application", rec("Application", 1, 4, "P", base(), 1))

	s := New(src, nil)
	s.Start([]string{"Application"}, filter.MatchAll(), 10_000, false)
	waitReady(t, s)

	if s.ToggleBookmark(99) {
		t.Error("out-of-range bookmark must be rejected")
	}
	if s.ToggleBookmark(-1) {
		t.Error("negative bookmark must be rejected")
	}
}

func TestChannelErrorSurfaced(t *testing.T) {
	src := newFakeSource()
	src.add("Application", rec("Application", 1, 4, "P", base(), 1))
	src.fail["Security"] = reader.Error{
		Channel: "Security",
		Kind:    reader.KindAccessDenied,
		Message: "EvtQuery on \"Security\" (HRESULT 0x80070005)",
	}

	s := New(src, nil)
	s.Start([]string{"Application", "Security"}, filter.MatchAll(), 10_000, false)
	snap := waitReady(t, s)

	if len(snap.Errors) != 1 {
		t.Fatalf("Errors = %v, want one entry", snap.Errors)
	}
	if snap.Errors[0].Kind != "access-denied" {
		t.Errorf("Kind = %q", snap.Errors[0].Kind)
	}
	if !snap.SecurityAccessDenied {
		t.Error("security banner flag should be set")
	}
	// The other channel still loaded.
	if snap.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", snap.TotalCount)
	}
}

func TestSecurityBannerClearsOnLaterSuccess(t *testing.T) {
	src := newFakeSource()
	src.fail["Security"] = reader.Error{
		Channel: "Security", Kind: reader.KindAccessDenied, Message: "denied",
	}

	s := New(src, nil)
	s.Start([]string{"Security"}, filter.MatchAll(), 10_000, false)
	snap := waitReady(t, s)
	if !snap.SecurityAccessDenied {
		t.Fatal("banner should be set after access-denied")
	}

	delete(src.fail, "Security")
	src.add("Security", rec("Security", 4624, 4, "Auth", base(), 1))
	s.Start([]string{"Security"}, filter.MatchAll(), 10_000, false)
	snap = waitReady(t, s)
	if snap.SecurityAccessDenied {
		t.Fatal("banner should clear after a successful Security load")
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	src := newFakeSource()
	src.add("Application", rec("Application", 1, 4, "P", base(), 1))

	s := New(src, nil)
	s.Start([]string{"Application"}, filter.MatchAll(), 10_000, false)
	s.Cancel()
	s.Cancel()
	waitReady(t, s)
	s.Cancel()
}

func TestLiveTailAppendsWithoutReplacing(t *testing.T) {
	src := newFakeSource()
	src.add("Application", rec("Application", 1, 4, "P", base(), 1))

	s := New(src, nil)
	s.Start([]string{"Application"}, filter.MatchAll(), 10_000, false)
	waitReady(t, s)
	s.EnableTail(time.Millisecond)

	// New event strictly after the boundary, plus a boundary duplicate.
	src.add("Application",
		rec("Application", 1, 4, "P", base(), 1), // duplicate of the original
		rec("Application", 2, 4, "P", base().Add(time.Minute), 2),
	)

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := s.Frame()
		if snap.TotalCount >= 2 {
			if snap.TotalCount != 2 {
				t.Fatalf("TotalCount = %d: tail must append new events exactly once", snap.TotalCount)
			}
			if snap.State != "tailing" {
				t.Errorf("State = %q, want tailing", snap.State)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("tail never delivered the new event")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.DisableTail()
	snap := s.Frame()
	if snap.Tailing {
		t.Error("Tailing should be false after DisableTail")
	}
}

func TestBoundaryDuplicateDropped(t *testing.T) {
	src := newFakeSource()
	boundary := base()
	src.add("Application",
		rec("Application", 1, 4, "P", boundary, 1),
	)

	s := New(src, nil)
	s.Start([]string{"Application"}, filter.MatchAll(), 10_000, false)
	waitReady(t, s)
	s.EnableTail(time.Millisecond)

	// A tail-delivered record at the exact boundary timestamp with a
	// new identity must be kept; the same identity must be dropped.
	src.add("Application",
		rec("Application", 1, 4, "P", boundary, 1), // same identity
		rec("Application", 9, 4, "P", boundary, 7), // new identity, same millisecond
	)

	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := s.Frame()
		if snap.TotalCount >= 2 {
			if snap.TotalCount != 2 {
				t.Fatalf("TotalCount = %d, want 2 (boundary duplicate dropped)", snap.TotalCount)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("boundary record never arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMaxEventsClamped(t *testing.T) {
	src := newFakeSource()
	for i := 0; i < 5; i++ {
		src.add("Application", rec("Application", uint32(i), 4, "P", base().Add(time.Duration(i)*time.Second), uint64(i)))
	}

	s := New(src, nil)
	// 1 is below the floor; the session must clamp it up, so all five
	// records fit.
	s.Start([]string{"Application"}, filter.MatchAll(), 1, false)
	snap := waitReady(t, s)
	if snap.TotalCount != 5 {
		t.Fatalf("TotalCount = %d, want 5 (limit clamped to the floor)", snap.TotalCount)
	}
}

func TestEmptyChannelsGoesIdle(t *testing.T) {
	s := New(newFakeSource(), nil)
	s.Start(nil, filter.MatchAll(), 10_000, false)
	if snap := s.Frame(); snap.State != "idle" {
		t.Fatalf("State = %q, want idle", snap.State)
	}
}

func TestFilteredRecordsMatchesIndex(t *testing.T) {
	src := newFakeSource()
	src.add("Application",
		rec("Application", 1, 2, "A", base(), 1),
		rec("Application", 2, 4, "B", base().Add(time.Second), 2),
	)

	s := New(src, nil)
	s.Start([]string{"Application"}, filter.MatchAll(), 10_000, false)
	waitReady(t, s)

	st, err := filter.Compile(filter.Input{Levels: []uint8{2}})
	if err != nil {
		t.Fatal(err)
	}
	s.UpdateFilter(st)
	s.Frame()

	recs := s.FilteredRecords()
	if len(recs) != 1 || recs[0].EventID != 1 {
		t.Fatalf("FilteredRecords = %v", recs)
	}
}
