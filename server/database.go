package main

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// EventRow is one stored session event
type EventRow struct {
	ID        int64
	ServerID  string
	Type      string
	Slot      int // -1 when the event is not tied to a slot
	Addr      string
	CreatedAt time.Time
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS session_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			server_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			slot INTEGER,
			addr TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_session_events_type ON session_events(event_type);
		CREATE INDEX IF NOT EXISTS idx_session_events_server ON session_events(server_id);
	`)
	return err
}

// RecentEvents returns the newest events first
func (db *DB) RecentEvents(limit int) ([]EventRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, server_id, event_type, slot, addr, created_at
		FROM session_events ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var (
			r       EventRow
			slot    sql.NullInt64
			addr    sql.NullString
			created string
		)
		if err := rows.Scan(&r.ID, &r.ServerID, &r.Type, &slot, &addr, &created); err != nil {
			return nil, err
		}
		r.Slot = -1
		if slot.Valid {
			r.Slot = int(slot.Int64)
		}
		r.Addr = addr.String
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, r)
	}
	return out, rows.Err()
}
