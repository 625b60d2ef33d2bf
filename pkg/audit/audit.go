// Package audit provides a durable trail of session activity. Events
// record which operations ran and against which record names; field
// values never reach the log.
package audit

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

// Operation types for audit logging.
const (
	OpSessionStart = "session.start"
	OpSessionEnd   = "session.end"

	OpSet     = "cmd.set"
	OpDel     = "cmd.del"
	OpShow    = "cmd.show"
	OpReveal  = "cmd.reveal"
	OpCopy    = "cmd.copy"
	OpHistory = "cmd.history"
	OpRename  = "cmd.rename"
	OpImport  = "cmd.import"
	OpInvalid = "cmd.invalid"

	OpVaultSave  = "vault.save"
	OpVaultMerge = "vault.merge"
)

// Result indicates the outcome of an operation.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Event is a single audit record.
type Event struct {
	ID        int64
	Timestamp time.Time
	Session   string
	Op        string
	Key       string
	Result    string
}

// Logger appends events to a SQLite database. A nil *Logger is valid
// and discards everything, which is how audit is disabled.
type Logger struct {
	db      *sql.DB
	session string
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	ts      TEXT NOT NULL,
	session TEXT NOT NULL,
	op      TEXT NOT NULL,
	key     TEXT NOT NULL DEFAULT '',
	result  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_ts ON events(ts);
`

// Open opens (creating if needed) the audit database at path and
// starts a new session.
func Open(path string) (*Logger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: failed to create schema: %w", err)
	}

	session, err := newSessionID()
	if err != nil {
		db.Close()
		return nil, err
	}

	l := &Logger{db: db, session: session}
	if err := l.Record(OpSessionStart, "", ResultSuccess); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// OpenReadOnly opens the audit database for inspection without
// starting a session, so listing the trail leaves no events behind.
func OpenReadOnly(path string) (*Logger, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("audit: no trail at %q: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to open database: %w", err)
	}
	return &Logger{db: db}, nil
}

func newSessionID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("audit: failed to generate session id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Session returns the current session id.
func (l *Logger) Session() string {
	if l == nil {
		return ""
	}
	return l.session
}

// Record appends one event. Key is the record name the operation
// touched, empty when not applicable.
func (l *Logger) Record(op, key, result string) error {
	if l == nil {
		return nil
	}
	_, err := l.db.Exec(
		`INSERT INTO events (ts, session, op, key, result) VALUES (?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), l.session, op, key, result,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to record event: %w", err)
	}
	return nil
}

// List returns up to limit events, most recent first. limit <= 0 means
// no limit.
func (l *Logger) List(limit int) ([]Event, error) {
	if l == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := l.db.Query(
		`SELECT id, ts, session, op, key, result FROM events ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Session, &e.Op, &e.Key, &e.Result); err != nil {
			return nil, fmt.Errorf("audit: failed to scan event: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("audit: corrupt timestamp %q: %w", ts, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close logs the session end and closes the database.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	if l.session != "" {
		l.Record(OpSessionEnd, "", ResultSuccess)
	}
	return l.db.Close()
}
