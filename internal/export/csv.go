// Package export writes filtered event records to CSV and JSON files.
// The coordinator feeds it record slices; it never touches session
// state.
package export

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// timestampLayout is ISO 8601 UTC at millisecond precision, matching
// the record model's resolution.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// csvHeader is the fixed column set for CSV export.
var csvHeader = []string{
	"Timestamp", "Level", "EventID", "Provider", "Computer", "Channel", "Message",
}

// WriteCSV writes the records to path with one row per event.
// Timestamps are ISO 8601 UTC; message line breaks collapse to single
// spaces. Quoting and quote-doubling are per RFC 4180.
func WriteCSV(path string, records []*model.EventRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return &model.ExportError{Detail: "creating CSV file", Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return &model.ExportError{Detail: "writing CSV header", Err: err}
	}

	row := make([]string, len(csvHeader))
	for _, e := range records {
		row[0] = e.Timestamp.UTC().Format(timestampLayout)
		row[1] = e.LevelName
		row[2] = strconv.FormatUint(uint64(e.EventID), 10)
		row[3] = e.ProviderName
		row[4] = e.Computer
		row[5] = e.Channel
		row[6] = flattenMessage(e.DisplayMessage())
		if err := w.Write(row); err != nil {
			return &model.ExportError{Detail: "writing CSV row", Err: err}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return &model.ExportError{Detail: "flushing CSV", Err: err}
	}
	if err := f.Close(); err != nil {
		return &model.ExportError{Detail: "closing CSV file", Err: err}
	}
	return nil
}

// flattenMessage replaces any run of line-break characters with a
// single space so each event stays on one CSV row visually.
func flattenMessage(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inBreak := false
	for _, r := range s {
		if r == '\r' || r == '\n' {
			if !inBreak {
				b.WriteByte(' ')
				inBreak = true
			}
			continue
		}
		inBreak = false
		b.WriteRune(r)
	}
	return b.String()
}
