package config

import (
	"reflect"
	"testing"

	"github.com/Swatto86/EventSleuth/internal/model"
)

func TestDefaults(t *testing.T) {
	p, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if p.Theme() != "dark" {
		t.Errorf("Theme = %q, want dark", p.Theme())
	}
	if !reflect.DeepEqual(p.SelectedSources(), model.DefaultChannels) {
		t.Errorf("SelectedSources = %v", p.SelectedSources())
	}
	if p.MaxEvents() != model.DefaultMaxEventsPerChannel {
		t.Errorf("MaxEvents = %d", p.MaxEvents())
	}
	if !reflect.DeepEqual(p.Columns(), DefaultColumns) {
		t.Errorf("Columns = %v", p.Columns())
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	p, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	p.SetTheme("light")
	p.SetSelectedSources([]string{"Security", "System"})
	p.SetMaxEvents(250_000)
	p.SetColumns([]string{"timestamp", "message"})
	if err := p.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	q, err := Load(dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if q.Theme() != "light" {
		t.Errorf("Theme = %q", q.Theme())
	}
	if !reflect.DeepEqual(q.SelectedSources(), []string{"Security", "System"}) {
		t.Errorf("SelectedSources = %v", q.SelectedSources())
	}
	if q.MaxEvents() != 250_000 {
		t.Errorf("MaxEvents = %d", q.MaxEvents())
	}
	if !reflect.DeepEqual(q.Columns(), []string{"timestamp", "message"}) {
		t.Errorf("Columns = %v", q.Columns())
	}
}

func TestMaxEventsClamped(t *testing.T) {
	p, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p.SetMaxEvents(1)
	if p.MaxEvents() != model.MinMaxEventsPerChannel {
		t.Errorf("MaxEvents = %d, want floor %d", p.MaxEvents(), model.MinMaxEventsPerChannel)
	}
	p.SetMaxEvents(999_999_999)
	if p.MaxEvents() != model.MaxMaxEventsPerChannel {
		t.Errorf("MaxEvents = %d, want ceiling %d", p.MaxEvents(), model.MaxMaxEventsPerChannel)
	}
}

func TestBadThemeNormalises(t *testing.T) {
	p, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	p.SetTheme("solarized")
	if p.Theme() != "dark" {
		t.Errorf("Theme = %q, want dark fallback", p.Theme())
	}
}
