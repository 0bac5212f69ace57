package session

import (
	"sort"
	"time"
)

// Snapshot is the immutable-for-the-frame view handed to the consumer.
// Every slice and map is a copy; mutating a snapshot never touches
// session state.
type Snapshot struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`

	TotalCount    int   `json:"total_count"`
	FilteredCount int   `json:"filtered_count"`
	FilteredIndex []int `json:"filtered_index"`

	// Selection is an index into the master list, or -1.
	Selection int   `json:"selection"`
	Bookmarks []int `json:"bookmarks"`

	Stats Stats `json:"stats"`

	Progress map[string]ChannelProgress `json:"progress"`
	Errors   []ChannelError             `json:"errors"`

	// SecurityAccessDenied drives the elevation banner: set while the
	// Security source has an access-denied error and no later load of
	// it has succeeded.
	SecurityAccessDenied bool `json:"security_access_denied"`

	Tailing   bool          `json:"tailing"`
	ElapsedMS time.Duration `json:"elapsed_ms"`
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:            s.id,
		State:                s.state.String(),
		TotalCount:           len(s.allEvents),
		FilteredCount:        len(s.filteredIndex),
		FilteredIndex:        append([]int(nil), s.filteredIndex...),
		Selection:            s.selection,
		Stats:                s.stats,
		Progress:             make(map[string]ChannelProgress, len(s.prog)),
		Errors:               append([]ChannelError(nil), s.errors...),
		SecurityAccessDenied: s.securityDenied,
		Tailing:              s.tailing,
		ElapsedMS:            s.elapsed / time.Millisecond,
	}
	snap.Stats.TopProviders = append([]ProviderCount(nil), s.stats.TopProviders...)
	snap.Stats.Hourly = append([]HourBucket(nil), s.stats.Hourly...)
	for ch, p := range s.prog {
		snap.Progress[ch] = p
	}
	for idx := range s.bookmarks {
		snap.Bookmarks = append(snap.Bookmarks, idx)
	}
	sort.Ints(snap.Bookmarks)
	return snap
}
