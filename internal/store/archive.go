package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/Swatto86/EventSleuth/internal/model"
)

// progressEvery is how often the insert progress callback fires.
const progressEvery = 10_000

// Archive is an export target for filtered event records: a SQLite
// file ("sqlite") or a PostgreSQL database ("postgres").
type Archive struct {
	target  string
	conn    *sql.DB
	dialect Dialect
}

// CreateArchive opens the target and ensures the events table exists.
// For sqlite, pathOrConnStr is the .db file path; for postgres it is a
// connection string and the database must already exist.
func CreateArchive(driver, pathOrConnStr string) (*Archive, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(d.DriverName(), d.DSN(pathOrConnStr))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connecting to archive: %w", err)
	}

	a := &Archive{target: pathOrConnStr, conn: conn, dialect: d}
	if _, err := conn.Exec(d.CreateEventsTableSQL()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating events table: %w", err)
	}
	return a, nil
}

// Close closes the underlying connection.
func (a *Archive) Close() error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

// Target returns the path or connection string the archive writes to.
func (a *Archive) Target() string { return a.target }

// InsertRecords appends the records inside a single transaction.
// onProgress, when non-nil, is called every progressEvery rows and once
// at the end. Returns the number of rows written.
func (a *Archive) InsertRecords(records []*model.EventRecord, onProgress func(count int)) (int, error) {
	tx, err := a.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(a.dialect.InsertEventSQL())
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for _, e := range records {
		eventData, err := json.Marshal(e.EventData)
		if err != nil {
			return count, fmt.Errorf("encoding event data: %w", err)
		}

		san := a.dialect.SanitizeText
		_, err = stmt.Exec(
			san(e.Channel),
			int64(e.EventID),
			int64(e.Level),
			e.LevelName,
			san(e.ProviderName),
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			san(e.Computer),
			san(e.Message),
			int64(e.ProcessID),
			int64(e.ThreadID),
			int64(e.Task),
			int64(e.Opcode),
			fmt.Sprintf("0x%016x", e.Keywords),
			e.ActivityID,
			e.UserSID,
			int64(e.RecordID),
			san(string(eventData)),
			san(e.RawXML),
		)
		if err != nil {
			return count, fmt.Errorf("inserting event %d: %w", count, err)
		}
		count++
		if onProgress != nil && count%progressEvery == 0 {
			onProgress(count)
		}
	}

	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("committing archive: %w", err)
	}
	if onProgress != nil {
		onProgress(count)
	}
	return count, nil
}
