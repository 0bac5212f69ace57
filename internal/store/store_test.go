package store

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Swatto86/EventSleuth/internal/filter"
	"github.com/Swatto86/EventSleuth/internal/model"
)

func testRecord(id uint32) *model.EventRecord {
	return &model.EventRecord{
		Channel:      "Application",
		EventID:      id,
		Level:        2,
		LevelName:    "Error",
		ProviderName: "TestProvider",
		Timestamp:    time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		Computer:     "TEST-PC",
		Message:      "something\x00with a nul",
		Keywords:     0x8000000000000000,
		RecordID:     uint64(id),
		EventData:    []model.DataPair{{Name: "k", Value: "v"}},
		RawXML:       "<Event/>",
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	a, err := CreateArchive("sqlite", path)
	if err != nil {
		t.Fatalf("CreateArchive failed: %v", err)
	}
	defer a.Close()

	records := []*model.EventRecord{testRecord(1), testRecord(2), testRecord(3)}
	var progress []int
	n, err := a.InsertRecords(records, func(count int) { progress = append(progress, count) })
	if err != nil {
		t.Fatalf("InsertRecords failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("inserted = %d, want 3", n)
	}
	if len(progress) == 0 || progress[len(progress)-1] != 3 {
		t.Errorf("progress callbacks = %v", progress)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("rows = %d, want 3", count)
	}

	var keywords, eventData string
	err = conn.QueryRow(`SELECT keywords, event_data FROM events WHERE event_id = 1`).
		Scan(&keywords, &eventData)
	if err != nil {
		t.Fatal(err)
	}
	if keywords != "0x8000000000000000" {
		t.Errorf("keywords = %q", keywords)
	}
	if eventData != `[{"name":"k","value":"v"}]` {
		t.Errorf("event_data = %q", eventData)
	}
}

func TestArchiveUnsupportedDriver(t *testing.T) {
	if _, err := CreateArchive("mysql", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestPostgresDialectSQL(t *testing.T) {
	d := &PostgresDialect{}
	if got := d.Placeholder(3); got != "$3" {
		t.Errorf("Placeholder(3) = %q", got)
	}
	if got := d.SanitizeText("a\x00b"); got != "ab" {
		t.Errorf("SanitizeText = %q", got)
	}
	sql := d.InsertEventSQL()
	if !strings.Contains(sql, "$18") {
		t.Errorf("insert SQL should number all placeholders, got %q", sql)
	}
}

func TestPresetCRUD(t *testing.T) {
	s, err := OpenSettings(filepath.Join(t.TempDir(), "settings.db"))
	if err != nil {
		t.Fatalf("OpenSettings failed: %v", err)
	}
	defer s.Close()

	p := filter.NewPreset("errors-only", filter.Input{
		EventIDSpec: "1-10,!5",
		Levels:      []uint8{1, 2},
		Provider:    "svc",
	})
	if err := s.SavePreset(p); err != nil {
		t.Fatalf("SavePreset failed: %v", err)
	}

	got, err := s.LoadPreset("errors-only")
	if err != nil {
		t.Fatalf("LoadPreset failed: %v", err)
	}
	if got.Filter.EventIDSpec != "1-10,!5" {
		t.Errorf("id spec = %q", got.Filter.EventIDSpec)
	}

	// Overwrite is allowed.
	p.Filter.Provider = "other"
	if err := s.SavePreset(p); err != nil {
		t.Fatalf("SavePreset overwrite failed: %v", err)
	}
	got, err = s.LoadPreset("errors-only")
	if err != nil {
		t.Fatal(err)
	}
	if got.Filter.Provider != "other" {
		t.Errorf("overwrite not applied: %q", got.Filter.Provider)
	}

	if err := s.SavePreset(filter.NewPreset("another", filter.Input{})); err != nil {
		t.Fatal(err)
	}
	names, err := s.ListPresets()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "another" || names[1] != "errors-only" {
		t.Errorf("ListPresets = %v", names)
	}

	if err := s.DeletePreset("errors-only"); err != nil {
		t.Fatalf("DeletePreset failed: %v", err)
	}
	if _, err := s.LoadPreset("errors-only"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("expected ErrPresetNotFound, got %v", err)
	}
	if err := s.DeletePreset("errors-only"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("double delete should report not found, got %v", err)
	}
}
