package session

import (
	"testing"
	"time"

	"github.com/Swatto86/EventSleuth/internal/model"
)

func TestComputeStats(t *testing.T) {
	at := time.Date(2025, 2, 1, 10, 15, 0, 0, time.UTC)
	events := []*model.EventRecord{
		rec("Application", 1, 2, "SvcA", at, 1),
		rec("Application", 2, 2, "SvcA", at.Add(10*time.Minute), 2),
		rec("Application", 3, 3, "SvcB", at.Add(time.Hour), 3),
		rec("Application", 4, 4, "SvcC", at.Add(2*time.Hour), 4),
	}
	indices := []int{0, 1, 2, 3}

	stats := computeStats(events, indices)

	if stats.Total != 4 {
		t.Fatalf("Total = %d", stats.Total)
	}
	if stats.LevelCounts[2] != 2 || stats.LevelCounts[3] != 1 || stats.LevelCounts[4] != 1 {
		t.Errorf("LevelCounts = %v", stats.LevelCounts)
	}
	if len(stats.TopProviders) != 3 || stats.TopProviders[0].Provider != "SvcA" || stats.TopProviders[0].Count != 2 {
		t.Errorf("TopProviders = %v", stats.TopProviders)
	}

	// 10:15 through 12:15 spans three hour-aligned buckets.
	if len(stats.Hourly) != 3 {
		t.Fatalf("Hourly buckets = %d, want 3", len(stats.Hourly))
	}
	if stats.Hourly[0].Count != 2 || stats.Hourly[1].Count != 1 || stats.Hourly[2].Count != 1 {
		t.Errorf("Hourly = %v", stats.Hourly)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := computeStats(nil, nil)
	if stats.Total != 0 || len(stats.TopProviders) != 0 || len(stats.Hourly) != 0 {
		t.Errorf("empty stats not zero: %+v", stats)
	}
}

func TestComputeStatsRespectsFilterIndex(t *testing.T) {
	at := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	events := []*model.EventRecord{
		rec("Application", 1, 2, "SvcA", at, 1),
		rec("Application", 2, 4, "SvcB", at, 2),
	}

	stats := computeStats(events, []int{0})
	if stats.Total != 1 {
		t.Fatalf("Total = %d, want 1", stats.Total)
	}
	if stats.LevelCounts[4] != 0 {
		t.Error("unfiltered event leaked into stats")
	}
}

func TestHistogramCapsAtRecentBuckets(t *testing.T) {
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	var events []*model.EventRecord
	var indices []int
	for i := 0; i < 48; i++ {
		events = append(events, rec("Application", uint32(i), 4, "P", start.Add(time.Duration(i)*time.Hour), uint64(i)))
		indices = append(indices, i)
	}

	stats := computeStats(events, indices)
	if len(stats.Hourly) != maxHistogramBuckets {
		t.Fatalf("Hourly buckets = %d, want cap %d", len(stats.Hourly), maxHistogramBuckets)
	}
	// Only the most recent span is kept.
	total := 0
	for _, b := range stats.Hourly {
		total += b.Count
	}
	if total != maxHistogramBuckets {
		t.Errorf("bucketed events = %d, want %d most recent", total, maxHistogramBuckets)
	}
}
