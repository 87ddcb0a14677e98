package transport

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/hearth/internal/cache"
	"github.com/dukerupert/hearth/internal/crdt"
)

// Hub hosts sync rooms. Each room holds its own replica of the shared
// document. The relay is just another peer that happens to be reachable,
// never an arbiter: it merges and forwards deltas with the same algorithm
// every device runs.
type Hub struct {
	secret string
	db     *sql.DB
	logger *slog.Logger

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewHub creates a hub. db is optional: when set, every room's replica is
// persisted through the local cache and survives relay restarts. secret is
// optional and applies to all hosted rooms; it must match the clients'.
func NewHub(db *sql.DB, secret string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		secret: secret,
		db:     db,
		logger: logger,
		rooms:  make(map[string]*Room),
	}
}

// Room returns the named room, creating and hydrating it on first use.
func (h *Hub) Room(name string) (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.rooms[name]; ok {
		return r, nil
	}

	r := &Room{
		name:    name,
		doc:     crdt.NewDoc("relay:"+name, h.logger),
		logger:  h.logger,
		clients: make(map[*roomClient]struct{}),
	}
	if h.secret != "" {
		cipher, err := newRoomCipher(h.secret, name)
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", name, err)
		}
		r.cipher = cipher
	}
	if h.db != nil {
		c := cache.New(h.db, name, h.logger)
		if err := c.Load(r.doc); err != nil {
			return nil, fmt.Errorf("hydrate room %s: %w", name, err)
		}
		c.Attach(r.doc)
		r.cache = c
	}

	h.rooms[name] = r
	h.logger.Info("room opened", "room", name, "persisted", h.db != nil)
	return r, nil
}

// ClientCount returns the number of connections across all rooms.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	var n int
	for _, r := range h.rooms {
		n += r.clientCount()
	}
	return n
}

// Close flushes every persisted room.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.rooms {
		if r.cache != nil {
			r.cache.Close()
		}
	}
}

// Room is one hosted document: a relay-side replica plus the set of
// connected devices.
type Room struct {
	name   string
	doc    *crdt.Doc
	cipher *roomCipher
	cache  *cache.Cache
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*roomClient]struct{}
}

type roomClient struct {
	send chan []byte
}

func (r *Room) register(c *roomClient) {
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()
}

func (r *Room) unregister(c *roomClient) {
	r.mu.Lock()
	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
		close(c.send)
	}
	r.mu.Unlock()
}

func (r *Room) clientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// broadcast forwards a raw frame to every client except the sender. Sealed
// frames are forwarded as-is since all room members share the key. A client
// whose buffer is full misses the frame; its next reconnect handshake
// catches it up.
func (r *Room) broadcast(from *roomClient, data []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for c := range r.clients {
		if c == from {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

// handleFrame processes one inbound frame from a device.
func (r *Room) handleFrame(from *roomClient, data []byte) {
	f, err := decodeFrame(data)
	if err != nil {
		r.logger.Warn("dropping undecodable frame", "room", r.name, "error", err)
		return
	}
	payload, err := r.openPayload(f.Payload)
	if err != nil {
		// Wrong or missing secret; never apply what we cannot read.
		r.logger.Warn("dropping unreadable frame", "room", r.name, "kind", f.Kind, "error", err)
		return
	}

	switch f.Kind {
	case kindHello:
		vector, err := crdt.DecodeVector(payload)
		if err != nil {
			r.logger.Warn("dropping malformed hello", "room", r.name, "error", err)
			return
		}
		r.replySync(from, vector)
	case kindDelta:
		delta, err := crdt.DecodeDelta(payload)
		if err != nil {
			r.logger.Warn("dropping malformed delta", "room", r.name, "error", err)
			return
		}
		r.doc.ApplyDelta(delta)
		r.broadcast(from, data)
	default:
		r.logger.Warn("dropping frame of unknown kind", "room", r.name, "kind", f.Kind)
	}
}

// replySync answers a hello with everything the device is missing plus the
// room's own vector, so the device can send back what the room is missing.
func (r *Room) replySync(to *roomClient, deviceVector crdt.Vector) {
	payload, err := encodeSyncPayload(r.doc.Vector(), r.doc.DeltaSince(deviceVector))
	if err != nil {
		r.logger.Error("encode sync reply", "room", r.name, "error", err)
		return
	}
	sealed, err := r.sealPayload(payload)
	if err != nil {
		r.logger.Error("seal sync reply", "room", r.name, "error", err)
		return
	}
	data, err := encodeFrame(frame{Kind: kindSync, Payload: sealed})
	if err != nil {
		r.logger.Error("encode sync frame", "room", r.name, "error", err)
		return
	}

	select {
	case to.send <- data:
	default:
		r.logger.Warn("client buffer full during handshake", "room", r.name)
	}
}

func (r *Room) sealPayload(payload []byte) ([]byte, error) {
	if r.cipher == nil {
		return payload, nil
	}
	return r.cipher.Seal(payload)
}

func (r *Room) openPayload(payload []byte) ([]byte, error) {
	if r.cipher == nil {
		return payload, nil
	}
	return r.cipher.Open(payload)
}
