// Package filter compiles user-supplied filter criteria and matches
// them against event records in memory.
//
// Filtering is split into an Input (the raw form the user typed) and a
// State (the compiled predicates). Compilation surfaces parse errors
// inline; matching is ordered cheapest-first so the common reject paths
// never touch the expensive text search.
package filter

import (
	"strings"
	"time"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// Input is the raw, user-visible filter form. It is what presets
// persist, so every field is the textual/serialisable representation.
type Input struct {
	// EventIDSpec is the textual id spec, e.g. "1001, 4000-4999, !4625".
	EventIDSpec string `json:"event_id_spec"`

	// Levels is the set of enabled severity levels. Empty means any.
	Levels []uint8 `json:"levels"`

	// Provider is a case-insensitive substring match on the provider name.
	Provider string `json:"provider"`

	// Text is a substring search across message, provider, channel,
	// event data values, and raw XML.
	Text string `json:"text"`

	// TimeFrom and TimeTo are inclusive RFC 3339 bounds; empty means
	// unbounded.
	TimeFrom string `json:"time_from"`
	TimeTo   string `json:"time_to"`

	// CaseSensitive applies to Text only.
	CaseSensitive bool `json:"case_sensitive"`
}

// State is a compiled filter ready for matching.
type State struct {
	// Source is the input this state was compiled from.
	Source Input

	ids    *IDSpec
	levels [6]bool
	anyLvl bool

	timeFrom, timeTo *time.Time

	providerLower string
	textLower     string
}

// Compile parses an Input into a matchable State. Returns a
// model.FilterParseError if the id spec or a time bound is malformed.
func Compile(in Input) (*State, error) {
	ids, err := CompileIDSpec(in.EventIDSpec)
	if err != nil {
		return nil, err
	}

	st := &State{
		Source:        in,
		ids:           ids,
		anyLvl:        len(in.Levels) == 0,
		providerLower: strings.ToLower(in.Provider),
		textLower:     strings.ToLower(in.Text),
	}
	for _, lvl := range in.Levels {
		if lvl <= 5 {
			st.levels[lvl] = true
		}
	}

	if st.timeFrom, err = parseBound(in.TimeFrom, "time from"); err != nil {
		return nil, err
	}
	if st.timeTo, err = parseBound(in.TimeTo, "time to"); err != nil {
		return nil, err
	}
	return st, nil
}

// MatchAll returns a compiled pass-everything filter.
func MatchAll() *State {
	st, _ := Compile(Input{})
	return st
}

func parseBound(s, what string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, &model.FilterParseError{Detail: what + ": " + err.Error()}
	}
	u := t.UTC()
	return &u, nil
}

// TimeFrom returns the compiled lower time bound, or nil.
func (s *State) TimeFrom() *time.Time { return s.timeFrom }

// TimeTo returns the compiled upper time bound, or nil.
func (s *State) TimeTo() *time.Time { return s.timeTo }

// IsEmpty reports whether the filter passes every record.
func (s *State) IsEmpty() bool {
	return s.ids.IsEmpty() && s.anyLvl && s.Source.Provider == "" &&
		s.Source.Text == "" && s.timeFrom == nil && s.timeTo == nil
}

// Matches tests a record against every active criterion. Checks are
// ordered cheapest-first: level, event id, time range, provider
// substring, then the text search.
func (s *State) Matches(e *model.EventRecord) bool {
	if !s.anyLvl {
		lvl := e.Level
		if lvl > 5 {
			lvl = 5
		}
		if !s.levels[lvl] {
			return false
		}
	}

	if !s.ids.Matches(e.EventID) {
		return false
	}

	if s.timeFrom != nil && e.Timestamp.Before(*s.timeFrom) {
		return false
	}
	if s.timeTo != nil && e.Timestamp.After(*s.timeTo) {
		return false
	}

	if s.providerLower != "" &&
		!strings.Contains(strings.ToLower(e.ProviderName), s.providerLower) {
		return false
	}

	if s.Source.Text != "" && !s.matchText(e) {
		return false
	}

	return true
}

// matchText searches message, provider, channel, event data values,
// and finally the raw XML (most expensive, checked last).
func (s *State) matchText(e *model.EventRecord) bool {
	if s.Source.CaseSensitive {
		q := s.Source.Text
		if strings.Contains(e.Message, q) ||
			strings.Contains(e.ProviderName, q) ||
			strings.Contains(e.Channel, q) {
			return true
		}
		for _, d := range e.EventData {
			if strings.Contains(d.Value, q) {
				return true
			}
		}
		return strings.Contains(e.RawXML, q)
	}

	q := s.textLower
	if strings.Contains(strings.ToLower(e.Message), q) ||
		strings.Contains(strings.ToLower(e.ProviderName), q) ||
		strings.Contains(strings.ToLower(e.Channel), q) {
		return true
	}
	for _, d := range e.EventData {
		if strings.Contains(strings.ToLower(d.Value), q) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(e.RawXML), q)
}

// LastHoursBound returns an RFC 3339 lower bound for the "last N
// hours" time preset.
func LastHoursBound(hours int) string {
	return time.Now().UTC().Add(-time.Duration(hours) * time.Hour).Format(time.RFC3339)
}

// TodayBound returns an RFC 3339 lower bound at local midnight today.
func TodayBound() string {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.UTC().Format(time.RFC3339)
}
