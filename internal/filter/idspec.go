package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// span is an inclusive event-id range.
type span struct {
	lo, hi uint32
}

func (s span) contains(id uint32) bool { return id >= s.lo && id <= s.hi }

// IDSpec is a compiled event-id predicate.
//
// The textual grammar is comma-separated tokens with whitespace
// ignored: `N` includes an id, `N-M` includes an inclusive range
// (N must not exceed M), and a `!` prefix turns either form into an
// exclusion. An empty spec matches every id.
//
// Ranges are kept as spans rather than materialised id sets so a token
// like `1-4000000000` compiles in constant space.
type IDSpec struct {
	raw      string
	includes []span
	excludes []span
}

// CompileIDSpec parses a textual event-id spec. Returns a
// model.FilterParseError describing the offending token on failure.
func CompileIDSpec(raw string) (*IDSpec, error) {
	spec := &IDSpec{raw: raw}

	for _, token := range strings.Split(raw, ",") {
		token = strings.Join(strings.Fields(token), "")
		if token == "" {
			continue
		}

		negate := false
		if rest, ok := strings.CutPrefix(token, "!"); ok {
			negate = true
			token = rest
			if token == "" {
				return nil, &model.FilterParseError{Detail: `"!" must be followed by an id or range`}
			}
		}

		var sp span
		if lo, hi, ok := strings.Cut(token, "-"); ok {
			start, err := parseID(lo)
			if err != nil {
				return nil, &model.FilterParseError{Detail: fmt.Sprintf("invalid range start %q", lo)}
			}
			end, err := parseID(hi)
			if err != nil {
				return nil, &model.FilterParseError{Detail: fmt.Sprintf("invalid range end %q", hi)}
			}
			if start > end {
				return nil, &model.FilterParseError{
					Detail: fmt.Sprintf("range %q: start exceeds end", token),
				}
			}
			sp = span{lo: start, hi: end}
		} else {
			id, err := parseID(token)
			if err != nil {
				return nil, &model.FilterParseError{Detail: fmt.Sprintf("invalid event id %q", token)}
			}
			sp = span{lo: id, hi: id}
		}

		if negate {
			spec.excludes = append(spec.excludes, sp)
		} else {
			spec.includes = append(spec.includes, sp)
		}
	}

	return spec, nil
}

// Matches reports whether an id passes the spec: with no includes any
// non-excluded id passes; otherwise the id must be included and not
// excluded.
func (s *IDSpec) Matches(id uint32) bool {
	if s == nil {
		return true
	}
	for _, sp := range s.excludes {
		if sp.contains(id) {
			return false
		}
	}
	if len(s.includes) == 0 {
		return true
	}
	for _, sp := range s.includes {
		if sp.contains(id) {
			return true
		}
	}
	return false
}

// String returns the raw textual form the spec was compiled from, so
// presets round-trip losslessly.
func (s *IDSpec) String() string {
	if s == nil {
		return ""
	}
	return s.raw
}

// IsEmpty reports whether the spec matches all ids.
func (s *IDSpec) IsEmpty() bool {
	return s == nil || (len(s.includes) == 0 && len(s.excludes) == 0)
}

func parseID(tok string) (uint32, error) {
	v, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
