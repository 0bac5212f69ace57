package reader

import (
	"strings"
	"time"
)

// systemTimeLayout is the timestamp form the event XPath dialect
// expects in TimeCreated predicates.
const systemTimeLayout = "2006-01-02T15:04:05.000Z"

// BuildXPath generates the server-side query for the given options.
//
// Only time bounds are pushed into the XPath; every other predicate is
// matched in memory so the query stays trivial. With no bounds the
// query is "*". A Since bound (live tail) is strict so already-seen
// events at earlier timestamps are not re-delivered; boundary-timestamp
// duplicates are handled by the session's identity check.
func BuildXPath(opts Options) string {
	var conds []string

	switch {
	case opts.Since != nil:
		conds = append(conds,
			"TimeCreated[@SystemTime > '"+opts.Since.UTC().Format(systemTimeLayout)+"']")
	case opts.TimeFrom != nil:
		conds = append(conds,
			"TimeCreated[@SystemTime >= '"+opts.TimeFrom.UTC().Format(systemTimeLayout)+"']")
	}
	if opts.TimeTo != nil {
		conds = append(conds,
			"TimeCreated[@SystemTime <= '"+opts.TimeTo.UTC().Format(systemTimeLayout)+"']")
	}

	if len(conds) == 0 {
		return "*"
	}
	return "*[System[" + strings.Join(conds, " and ") + "]]"
}

// Timestamp formatting helper shared by readers and tests.
func FormatSystemTime(t time.Time) string {
	return t.UTC().Format(systemTimeLayout)
}
