package model

import (
	"errors"
	"testing"
)

func TestLevelName(t *testing.T) {
	cases := []struct {
		level uint8
		want  string
	}{
		{0, "LogAlways"},
		{1, "Critical"},
		{2, "Error"},
		{3, "Warning"},
		{4, "Information"},
		{5, "Verbose"},
		{6, "LogAlways"},
		{255, "LogAlways"},
	}
	for _, c := range cases {
		if got := LevelName(c.level); got != c.want {
			t.Errorf("LevelName(%d) = %q, want %q", c.level, got, c.want)
		}
	}
}

func TestDisplayMessage(t *testing.T) {
	e := EventRecord{Message: "formatted"}
	if got := e.DisplayMessage(); got != "formatted" {
		t.Errorf("expected formatted message, got %q", got)
	}

	e = EventRecord{EventData: []DataPair{{Name: "Data[0]", Value: "fallback"}}}
	if got := e.DisplayMessage(); got != "fallback" {
		t.Errorf("expected event data fallback, got %q", got)
	}

	e = EventRecord{}
	if got := e.DisplayMessage(); got != "(no message)" {
		t.Errorf("expected placeholder, got %q", got)
	}
}

func TestClampMaxEvents(t *testing.T) {
	if got := ClampMaxEvents(10); got != MinMaxEventsPerChannel {
		t.Errorf("expected clamp to %d, got %d", MinMaxEventsPerChannel, got)
	}
	if got := ClampMaxEvents(50_000_000); got != MaxMaxEventsPerChannel {
		t.Errorf("expected clamp to %d, got %d", MaxMaxEventsPerChannel, got)
	}
	if got := ClampMaxEvents(250_000); got != 250_000 {
		t.Errorf("expected pass-through, got %d", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	var err error = &ExportError{Detail: "writing csv", Err: inner}
	if !errors.Is(err, inner) {
		t.Error("ExportError should unwrap to the inner error")
	}

	var apiErr *WindowsAPIError
	err = &WindowsAPIError{HResult: 0x80070005, Context: "EvtQuery on 'Security'"}
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As should match WindowsAPIError")
	}
	if apiErr.HResult != 0x80070005 {
		t.Errorf("unexpected hresult: %08X", apiErr.HResult)
	}
}
