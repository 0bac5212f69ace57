package export

import (
	"bufio"
	"encoding/json"
	"os"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// WriteJSON writes the records to path as a pretty-printed JSON array.
// Field order follows the EventRecord struct definition.
func WriteJSON(path string, records []*model.EventRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return &model.ExportError{Detail: "creating JSON file", Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	// Encode an empty slice as [] rather than null.
	if records == nil {
		records = []*model.EventRecord{}
	}
	if err := enc.Encode(records); err != nil {
		return &model.ExportError{Detail: "encoding JSON", Err: err}
	}

	// Explicit flush so write errors are not swallowed by the deferred
	// close.
	if err := w.Flush(); err != nil {
		return &model.ExportError{Detail: "flushing JSON", Err: err}
	}
	if err := f.Close(); err != nil {
		return &model.ExportError{Detail: "closing JSON file", Err: err}
	}
	return nil
}
