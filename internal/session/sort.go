package session

import (
	"sort"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// SortColumn identifies the active display sort.
type SortColumn string

const (
	ColTimestamp SortColumn = "timestamp"
	ColLevel     SortColumn = "level"
	ColEventID   SortColumn = "event_id"
	ColProvider  SortColumn = "provider"
	ColChannel   SortColumn = "channel"
	ColMessage   SortColumn = "message"
)

func (c SortColumn) valid() bool {
	switch c {
	case ColTimestamp, ColLevel, ColEventID, ColProvider, ColChannel, ColMessage:
		return true
	}
	return false
}

// applyFilterLocked rebuilds filteredIndex from the current filter,
// bookmark mode, and sort, then restores the selection if its event is
// still visible.
func (s *Session) applyFilterLocked() {
	s.filteredIndex = s.filteredIndex[:0]
	for i, e := range s.allEvents {
		if s.showBookmarksOnly {
			if _, ok := s.bookmarks[i]; !ok {
				continue
			}
		}
		if s.filterState.Matches(e) {
			s.filteredIndex = append(s.filteredIndex, i)
		}
	}

	s.sortLocked()

	// Clear a selection that the filter removed.
	if s.selection >= 0 {
		visible := false
		for _, idx := range s.filteredIndex {
			if idx == s.selection {
				visible = true
				break
			}
		}
		if !visible {
			s.selection = -1
		}
	}

	s.stats = computeStats(s.allEvents, s.filteredIndex)
	s.filterDirty = false
}

// sortLocked orders filteredIndex by the active column and direction.
// Ties fall back to the append order, which is the OS delivery order
// within a channel.
func (s *Session) sortLocked() {
	events := s.allEvents
	asc := s.sortAscending

	cmp := func(a, b *model.EventRecord) int {
		switch s.sortColumn {
		case ColLevel:
			return int(a.Level) - int(b.Level)
		case ColEventID:
			return int(int64(a.EventID) - int64(b.EventID))
		case ColProvider:
			return compareStrings(a.ProviderName, b.ProviderName)
		case ColChannel:
			return compareStrings(a.Channel, b.Channel)
		case ColMessage:
			return compareStrings(a.Message, b.Message)
		default:
			return a.Timestamp.Compare(b.Timestamp)
		}
	}

	sort.SliceStable(s.filteredIndex, func(i, j int) bool {
		c := cmp(events[s.filteredIndex[i]], events[s.filteredIndex[j]])
		if asc {
			return c < 0
		}
		return c > 0
	})
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
