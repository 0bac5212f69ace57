// Package config persists user preferences as a key/value config file
// in the application data directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// Preference keys.
const (
	KeyTheme           = "pref.theme"
	KeySelectedSources = "pref.selected_sources"
	KeyMaxEvents       = "pref.max_events"
	KeyColumns         = "pref.columns"
)

// DefaultColumns is the initial table column set.
var DefaultColumns = []string{
	"timestamp", "level", "event_id", "provider", "channel", "message",
}

// Prefs wraps the viper-backed preference store.
type Prefs struct {
	v    *viper.Viper
	path string
}

// AppDataDir returns the per-user application data directory
// (%LOCALAPPDATA%/EventSleuth on Windows), creating it if needed.
func AppDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		base = local
	}
	dir := filepath.Join(base, model.AppDataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating app data dir: %w", err)
	}
	return dir, nil
}

// Load opens the preference file under dir, creating defaults when it
// does not exist yet.
func Load(dir string) (*Prefs, error) {
	v := viper.New()
	path := filepath.Join(dir, "config.yaml")
	v.SetConfigFile(path)

	v.SetDefault(KeyTheme, "dark")
	v.SetDefault(KeySelectedSources, model.DefaultChannels)
	v.SetDefault(KeyMaxEvents, model.DefaultMaxEventsPerChannel)
	v.SetDefault(KeyColumns, DefaultColumns)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading preferences: %w", err)
		}
	}
	return &Prefs{v: v, path: path}, nil
}

// Save writes the current preferences to disk.
func (p *Prefs) Save() error {
	if err := p.v.WriteConfigAs(p.path); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}

// Theme returns "dark" or "light"; anything else normalises to "dark".
func (p *Prefs) Theme() string {
	if t := p.v.GetString(KeyTheme); t == "light" {
		return t
	}
	return "dark"
}

// SetTheme stores the theme preference.
func (p *Prefs) SetTheme(theme string) {
	if theme != "light" {
		theme = "dark"
	}
	p.v.Set(KeyTheme, theme)
}

// SelectedSources returns the persisted channel selection.
func (p *Prefs) SelectedSources() []string {
	return p.v.GetStringSlice(KeySelectedSources)
}

// SetSelectedSources stores the channel selection.
func (p *Prefs) SetSelectedSources(sources []string) {
	p.v.Set(KeySelectedSources, sources)
}

// MaxEvents returns the per-channel event cap, clamped to the valid
// range.
func (p *Prefs) MaxEvents() int {
	return model.ClampMaxEvents(p.v.GetInt(KeyMaxEvents))
}

// SetMaxEvents stores the per-channel event cap, clamped.
func (p *Prefs) SetMaxEvents(n int) {
	p.v.Set(KeyMaxEvents, model.ClampMaxEvents(n))
}

// Columns returns the visible column ids.
func (p *Prefs) Columns() []string {
	cols := p.v.GetStringSlice(KeyColumns)
	if len(cols) == 0 {
		return append([]string(nil), DefaultColumns...)
	}
	return cols
}

// SetColumns stores the visible column ids.
func (p *Prefs) SetColumns(cols []string) {
	p.v.Set(KeyColumns, cols)
}
