package reader

import (
	"strings"
	"testing"
	"time"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestBuildXPathNoBounds(t *testing.T) {
	if got := BuildXPath(Options{}); got != "*" {
		t.Errorf("BuildXPath = %q, want *", got)
	}
}

func TestBuildXPathBothBounds(t *testing.T) {
	got := BuildXPath(Options{
		TimeFrom: ts("2024-01-15T10:00:00Z"),
		TimeTo:   ts("2024-01-15T11:00:00Z"),
	})
	want := "*[System[TimeCreated[@SystemTime >= '2024-01-15T10:00:00.000Z']" +
		" and TimeCreated[@SystemTime <= '2024-01-15T11:00:00.000Z']]]"
	if got != want {
		t.Errorf("BuildXPath =\n%q\nwant\n%q", got, want)
	}
}

func TestBuildXPathLowerBoundOnly(t *testing.T) {
	got := BuildXPath(Options{TimeFrom: ts("2024-01-15T10:00:00Z")})
	if !strings.Contains(got, ">= '2024-01-15T10:00:00.000Z'") {
		t.Errorf("missing inclusive lower bound: %q", got)
	}
	if strings.Contains(got, "<=") {
		t.Errorf("unexpected upper bound: %q", got)
	}
}

func TestBuildXPathSinceIsStrict(t *testing.T) {
	got := BuildXPath(Options{
		Since:    ts("2024-01-15T10:00:00.123Z"),
		TimeFrom: ts("2024-01-01T00:00:00Z"),
	})
	if !strings.Contains(got, "> '2024-01-15T10:00:00.123Z'") {
		t.Errorf("tail bound must be strict: %q", got)
	}
	if strings.Contains(got, ">=") {
		t.Errorf("Since must replace TimeFrom: %q", got)
	}
}

func TestBuildXPathNormalisesZone(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	from := time.Date(2024, 6, 1, 12, 0, 0, 0, loc)
	got := BuildXPath(Options{TimeFrom: &from})
	if !strings.Contains(got, "'2024-06-01T11:00:00.000Z'") {
		t.Errorf("bound not converted to UTC: %q", got)
	}
}

func TestClassifyCode(t *testing.T) {
	cases := []struct {
		code uint32
		want Kind
	}{
		{5, KindAccessDenied},
		{0x80070005, KindAccessDenied},
		{2, KindNotFound},
		{15007, KindNotFound},
		{1460, KindTransient},
		{0x800705B4, KindTransient},
		{1722, KindTransient},
		{0xDEAD, KindUnknown},
	}
	for _, c := range cases {
		if got := ClassifyCode(c.code); got != c.want {
			t.Errorf("ClassifyCode(%#x) = %v, want %v", c.code, got, c.want)
		}
	}
}
