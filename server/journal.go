package main

import (
	"database/sql"
	"log"
	"sync"
	"time"
)

// Session event types
const (
	EventServerStart   = "server_start"
	EventPlayerJoin    = "player_join"
	EventJoinRejected  = "join_rejected"
	EventPlayerEvicted = "player_evicted"
	EventPortChange    = "port_change"
)

const (
	journalQueueSize  = 1024
	journalBatchSize  = 50
	journalFlushEvery = 5 * time.Second
)

// SessionEvent is a single journal entry waiting to be written
type SessionEvent struct {
	Type      string
	Slot      int
	Addr      string
	Timestamp time.Time
}

// Journal records session events with batched background writes. Track
// never blocks the game loop.
type Journal struct {
	db       *DB
	serverID string
	events   chan SessionEvent
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewJournal creates and starts the journal background writer
func NewJournal(db *DB, serverID string) *Journal {
	j := &Journal{
		db:       db,
		serverID: serverID,
		events:   make(chan SessionEvent, journalQueueSize),
		stop:     make(chan struct{}),
	}
	j.wg.Add(1)
	go j.writer()
	return j
}

// ServerID identifies this server run in the journal
func (j *Journal) ServerID() string {
	return j.serverID
}

// Track enqueues an event for async persistence. slot < 0 means none.
func (j *Journal) Track(kind string, slot int, addr string) {
	select {
	case j.events <- SessionEvent{
		Type:      kind,
		Slot:      slot,
		Addr:      addr,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Queue full, drop rather than stall the tick
	}
}

// Stop flushes what is queued and shuts the writer down
func (j *Journal) Stop() {
	j.stopOnce.Do(func() { close(j.stop) })
	j.wg.Wait()
}

func (j *Journal) writer() {
	defer j.wg.Done()

	batch := make([]SessionEvent, 0, 64)
	ticker := time.NewTicker(journalFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-j.events:
			batch = append(batch, evt)
			if len(batch) >= journalBatchSize {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				j.flush(batch)
				batch = batch[:0]
			}
		case <-j.stop:
			for {
				select {
				case evt := <-j.events:
					batch = append(batch, evt)
				default:
					j.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of events in one transaction
func (j *Journal) flush(events []SessionEvent) {
	if j.db == nil || len(events) == 0 {
		return
	}
	tx, err := j.db.conn.Begin()
	if err != nil {
		log.Printf("journal: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO session_events (server_id, event_type, slot, addr, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("journal: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		slot := sql.NullInt64{Int64: int64(evt.Slot), Valid: evt.Slot >= 0}
		addr := sql.NullString{String: evt.Addr, Valid: evt.Addr != ""}
		if _, err := stmt.Exec(j.serverID, evt.Type, slot, addr, evt.Timestamp.Format(time.RFC3339)); err != nil {
			log.Printf("journal: insert error: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("journal: commit error: %v", err)
	}
}

// EventCounts returns how many events of each type this server recorded
func (j *Journal) EventCounts() (map[string]int, error) {
	counts := make(map[string]int)
	if j.db == nil {
		return counts, nil
	}
	rows, err := j.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM session_events
		WHERE server_id = ? GROUP BY event_type
	`, j.serverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
