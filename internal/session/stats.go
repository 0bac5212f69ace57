package session

import (
	"sort"
	"time"

	"github.com/Swatto86/EventSleuth/internal/model"
)

const (
	maxTopProviders     = 10
	maxHistogramBuckets = 24
)

// ProviderCount is one entry of the top-providers list.
type ProviderCount struct {
	Provider string `json:"provider"`
	Count    int    `json:"count"`
}

// HourBucket is one hour-aligned histogram bucket.
type HourBucket struct {
	Hour  time.Time `json:"hour"`
	Count int       `json:"count"`
}

// Stats summarise the currently filtered events.
type Stats struct {
	Total        int             `json:"total"`
	LevelCounts  [6]int          `json:"level_counts"`
	TopProviders []ProviderCount `json:"top_providers"`
	Hourly       []HourBucket    `json:"hourly"`
}

// computeStats derives the level histogram, top providers, and
// per-hour counts from the filtered index.
func computeStats(events []*model.EventRecord, indices []int) Stats {
	if len(indices) == 0 {
		return Stats{}
	}

	stats := Stats{Total: len(indices)}
	providerCounts := make(map[string]int)

	minTS := events[indices[0]].Timestamp
	maxTS := minTS
	for _, idx := range indices {
		e := events[idx]
		lvl := e.Level
		if lvl > 5 {
			lvl = 5
		}
		stats.LevelCounts[lvl]++
		providerCounts[e.ProviderName]++
		if e.Timestamp.Before(minTS) {
			minTS = e.Timestamp
		}
		if e.Timestamp.After(maxTS) {
			maxTS = e.Timestamp
		}
	}

	stats.TopProviders = topProviders(providerCounts)
	stats.Hourly = hourlyHistogram(events, indices, minTS, maxTS)
	return stats
}

func topProviders(counts map[string]int) []ProviderCount {
	out := make([]ProviderCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, ProviderCount{Provider: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Provider < out[j].Provider
	})
	if len(out) > maxTopProviders {
		out = out[:maxTopProviders]
	}
	return out
}

// hourlyHistogram buckets events into hour-aligned slots, keeping the
// most recent maxHistogramBuckets hours when the span is wider.
func hourlyHistogram(events []*model.EventRecord, indices []int, minTS, maxTS time.Time) []HourBucket {
	start := minTS.UTC().Truncate(time.Hour)
	end := maxTS.UTC().Truncate(time.Hour).Add(time.Hour)

	totalHours := int(end.Sub(start) / time.Hour)
	if totalHours < 1 {
		totalHours = 1
	}
	if totalHours > maxHistogramBuckets {
		start = end.Add(-maxHistogramBuckets * time.Hour)
		totalHours = maxHistogramBuckets
	}

	buckets := make([]HourBucket, totalHours)
	for i := range buckets {
		buckets[i].Hour = start.Add(time.Duration(i) * time.Hour)
	}

	for _, idx := range indices {
		ts := events[idx].Timestamp.UTC()
		if ts.Before(start) {
			continue
		}
		slot := int(ts.Sub(start) / time.Hour)
		if slot >= 0 && slot < len(buckets) {
			buckets[slot].Count++
		}
	}
	return buckets
}
