package store

import "strings"

// SQLiteDialect produces SQLite-compatible SQL via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) DSN(path string) string { return path }

func (d *SQLiteDialect) Placeholder(int) string { return "?" }

func (d *SQLiteDialect) SanitizeText(s string) string { return s }

func (d *SQLiteDialect) CreateEventsTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS events (
		channel TEXT NOT NULL,
		event_id INTEGER NOT NULL,
		level INTEGER NOT NULL,
		level_name TEXT NOT NULL,
		provider_name TEXT,
		timestamp TEXT NOT NULL,
		computer TEXT,
		message TEXT,
		process_id INTEGER,
		thread_id INTEGER,
		task INTEGER,
		opcode INTEGER,
		keywords TEXT,
		activity_id TEXT,
		user_sid TEXT,
		record_id INTEGER,
		event_data TEXT,
		raw_xml TEXT
	)`
}

func (d *SQLiteDialect) InsertEventSQL() string {
	return "INSERT INTO events (" + strings.Join(eventColumns, ", ") + ") VALUES " +
		placeholderList(d, len(eventColumns))
}
