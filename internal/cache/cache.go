// Package cache persists a replicated document to the local SQLite database
// so state survives restarts and is available before any network connection.
//
// Every committed delta, local or merged from a peer, is appended to a
// per-room delta log. Once the log grows past a threshold the cache collapses
// it into a single full-state snapshot. Restoring a room replays the snapshot
// followed by any deltas appended since.
package cache

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dukerupert/hearth/internal/crdt"
)

// compactThreshold is the delta-log length that triggers collapsing the log
// into a snapshot.
const compactThreshold = 256

const jobBuffer = 64

// Cache writes a document's deltas to durable storage in the background.
// Persistence never blocks a document write: deltas are queued and a single
// writer goroutine drains the queue. A failed write is logged and recovered
// from by snapshotting the full in-memory state on the next delta, since the
// in-memory document stays authoritative for the session.
type Cache struct {
	db     *sql.DB
	room   string
	logger *slog.Logger

	jobs chan job
	done chan struct{}

	// Set by enqueue when a delta is dropped on a full queue; drained by
	// the writer, which then snapshots the full document state.
	dropped atomic.Bool

	// Writer-goroutine state; never touched elsewhere.
	doc          *crdt.Doc
	needSnapshot bool
}

type job struct {
	payload []byte
	ack     chan struct{}
}

// New creates a cache for one room backed by the given database.
func New(db *sql.DB, room string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		db:     db,
		room:   room,
		logger: logger,
		jobs:   make(chan job, jobBuffer),
		done:   make(chan struct{}),
	}
}

// Load restores the room's persisted state into doc. Call before Attach and
// before connecting any transport, so the document starts from what this
// device last saw.
func (c *Cache) Load(doc *crdt.Doc) error {
	var snap []byte
	err := c.db.QueryRow(`SELECT payload FROM snapshots WHERE room = ?`, c.room).Scan(&snap)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap != nil {
		d, err := crdt.DecodeDelta(snap)
		if err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		doc.ApplyDelta(d)
	}

	rows, err := c.db.Query(`SELECT payload FROM deltas WHERE room = ? ORDER BY id ASC`, c.room)
	if err != nil {
		return fmt.Errorf("load deltas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan delta: %w", err)
		}
		d, err := crdt.DecodeDelta(payload)
		if err != nil {
			// A torn row cannot be replayed, but the rest of the log can.
			c.logger.Error("cache: skipping corrupt delta", "room", c.room, "error", err)
			continue
		}
		doc.ApplyDelta(d)
	}
	return rows.Err()
}

// Attach subscribes the cache to every delta doc commits or merges and
// starts the background writer.
func (c *Cache) Attach(doc *crdt.Doc) {
	c.doc = doc
	go c.writeLoop()

	doc.OnDelta(func(d crdt.Delta, _ bool) {
		payload, err := d.Encode()
		if err != nil {
			c.logger.Error("cache: encode delta", "room", c.room, "error", err)
			return
		}
		c.enqueue(payload)
	})
}

// enqueue hands a delta to the writer without ever blocking the caller,
// which runs inside the document's commit path. A delta dropped on a full
// queue is not lost: the dropped flag makes the writer snapshot the full
// document state, which includes it.
func (c *Cache) enqueue(payload []byte) {
	select {
	case c.jobs <- job{payload: payload}:
	default:
		c.logger.Warn("cache: delta queue full, deferring to snapshot", "room", c.room)
		c.dropped.Store(true)
	}
}

// Flush blocks until every delta queued so far has been written.
func (c *Cache) Flush() {
	ack := make(chan struct{})
	c.jobs <- job{ack: ack}
	<-ack
}

// Close flushes pending writes and stops the writer.
func (c *Cache) Close() {
	c.Flush()
	close(c.jobs)
	<-c.done
}

func (c *Cache) writeLoop() {
	defer close(c.done)
	for j := range c.jobs {
		if c.dropped.Swap(false) {
			c.needSnapshot = true
		}
		snapped := false
		if c.needSnapshot {
			if err := c.snapshot(); err != nil {
				c.logger.Error("cache: snapshot", "room", c.room, "error", err)
			} else {
				c.needSnapshot = false
				snapped = true
			}
		}
		if j.ack != nil {
			close(j.ack)
			continue
		}
		// A fresh snapshot already holds this delta's effect, and a failed
		// one means the log may be missing earlier deltas, so skip the
		// append in both cases.
		if !snapped && !c.needSnapshot {
			c.persist(j.payload)
		}
	}
}

// persist appends one delta, compacting the log once it has grown long. An
// append failure is recoverable: the writer snapshots the full state on the
// next job instead.
func (c *Cache) persist(payload []byte) {
	if _, err := c.db.Exec(`INSERT INTO deltas (room, payload) VALUES (?, ?)`, c.room, payload); err != nil {
		c.logger.Error("cache: append delta", "room", c.room, "error", err)
		c.needSnapshot = true
		return
	}

	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM deltas WHERE room = ?`, c.room).Scan(&n); err != nil {
		c.logger.Error("cache: count deltas", "room", c.room, "error", err)
		return
	}
	if n >= compactThreshold {
		if err := c.snapshot(); err != nil {
			c.logger.Error("cache: compact", "room", c.room, "error", err)
		}
	}
}

// snapshot collapses the delta log into a single full-state row. The
// snapshot write and the log truncation commit together.
func (c *Cache) snapshot() error {
	full, err := c.doc.DeltaSince(crdt.Vector{}).Encode()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO snapshots (room, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(room) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		c.room, full,
	); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM deltas WHERE room = ?`, c.room); err != nil {
		return fmt.Errorf("truncate deltas: %w", err)
	}
	return tx.Commit()
}
