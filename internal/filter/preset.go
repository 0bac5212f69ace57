package filter

import (
	"encoding/json"
	"fmt"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// Preset is a named, serialisable filter configuration.
//
// It stores the raw Input rather than the compiled State so the
// event-id spec text survives a save/load round-trip byte for byte.
// Serialisation is JSON with named fields; unknown fields from newer
// versions are ignored on load.
type Preset struct {
	Name   string `json:"name"`
	Filter Input  `json:"filter"`
}

// NewPreset captures the given input under a name.
func NewPreset(name string, in Input) Preset {
	return Preset{Name: name, Filter: in}
}

// Compile compiles the preset's stored input.
func (p Preset) Compile() (*State, error) {
	return Compile(p.Filter)
}

// MarshalPreset serialises a preset for storage.
func MarshalPreset(p Preset) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding preset %q: %w", p.Name, err)
	}
	return b, nil
}

// UnmarshalPreset deserialises a stored preset. A payload that does not
// decode, or whose filter no longer compiles, is a FilterParseError so
// the UI can surface it next to the preset list.
func UnmarshalPreset(data []byte) (Preset, error) {
	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, &model.FilterParseError{Detail: "decoding preset: " + err.Error()}
	}
	if _, err := Compile(p.Filter); err != nil {
		return Preset{}, err
	}
	return p, nil
}
