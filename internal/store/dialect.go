// Package store persists EventSleuth data with database/sql: named
// filter presets in the local settings database (SQLite), and
// user-initiated archive exports of filtered events to a SQLite file
// or a PostgreSQL database.
package store

import "fmt"

// Dialect abstracts the SQL differences between the supported
// backends. Placeholder indexing is 1-based so PostgreSQL numbering
// works; SQLite ignores the index.
type Dialect interface {
	// DriverName returns the database/sql driver name.
	DriverName() string

	// DSN maps a file path or connection string to the driver DSN.
	DSN(pathOrConnStr string) string

	// Placeholder returns the parameter placeholder for the given
	// 1-based index: "?" for SQLite, "$1", "$2", ... for PostgreSQL.
	Placeholder(index int) string

	// CreateEventsTableSQL returns the DDL for the archive events
	// table.
	CreateEventsTableSQL() string

	// InsertEventSQL returns the parameterised INSERT for one event
	// row.
	InsertEventSQL() string

	// SanitizeText prepares a string value for storage. PostgreSQL
	// rejects NUL bytes in text; SQLite stores them unchanged.
	SanitizeText(s string) string
}

// eventColumns is the archive column list in canonical record order.
var eventColumns = []string{
	"channel", "event_id", "level", "level_name", "provider_name",
	"timestamp", "computer", "message", "process_id", "thread_id",
	"task", "opcode", "keywords", "activity_id", "user_sid",
	"record_id", "event_data", "raw_xml",
}

// placeholderList builds "(p1, p2, ...)" for an insert.
func placeholderList(d Dialect, n int) string {
	s := "("
	for i := 1; i <= n; i++ {
		if i > 1 {
			s += ", "
		}
		s += d.Placeholder(i)
	}
	return s + ")"
}

// dialectFor maps a driver keyword to its dialect.
func dialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}, nil
	case "postgres":
		return &PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}
