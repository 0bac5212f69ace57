package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/Swatto86/EventSleuth/internal/filter"
)

// ErrPresetNotFound is returned when loading or deleting a preset name
// that does not exist.
var ErrPresetNotFound = errors.New("preset not found")

// Settings is the local SQLite settings database. It currently holds
// the named filter presets; the key/value preferences live in the
// viper config file.
type Settings struct {
	path string
	conn *sql.DB
}

// OpenSettings opens (or creates) the settings database at path.
func OpenSettings(path string) (*Settings, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening settings database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to settings database: %w", err)
	}

	s := &Settings{path: path, conn: conn}
	if _, err := conn.Exec(
		`CREATE TABLE IF NOT EXISTS presets (
			name TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating presets table: %w", err)
	}
	return s, nil
}

// Close closes the settings database.
func (s *Settings) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Path returns the settings database file path.
func (s *Settings) Path() string { return s.path }

// SavePreset stores (or replaces) a named preset.
func (s *Settings) SavePreset(p filter.Preset) error {
	data, err := filter.MarshalPreset(p)
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(
		`INSERT INTO presets (name, data) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data`,
		p.Name, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving preset %q: %w", p.Name, err)
	}
	return nil
}

// LoadPreset fetches a preset by name.
func (s *Settings) LoadPreset(name string) (filter.Preset, error) {
	var data string
	err := s.conn.QueryRow(`SELECT data FROM presets WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return filter.Preset{}, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	if err != nil {
		return filter.Preset{}, fmt.Errorf("loading preset %q: %w", name, err)
	}
	return filter.UnmarshalPreset([]byte(data))
}

// DeletePreset removes a preset by name.
func (s *Settings) DeletePreset(name string) error {
	res, err := s.conn.Exec(`DELETE FROM presets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting preset %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	return nil
}

// ListPresets returns all preset names, sorted.
func (s *Settings) ListPresets() ([]string, error) {
	rows, err := s.conn.Query(`SELECT name FROM presets`)
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning preset name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
