// Package session owns the lifecycle of the shared household document: one
// Session per login, torn down on logout. It wires the replicated document
// to its durable cache and sync transport and hands out the domain stores
// the UI consumes.
package session

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/cache"
	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
	"github.com/dukerupert/hearth/internal/transport"
)

// ErrNoCurrentUser is returned when a session is opened without an explicit
// member identity. There is deliberately no placeholder fallback: every
// write is attributed, so an anonymous session would poison shared state.
var ErrNoCurrentUser = errors.New("session: current user required")

// ErrNoRoom is returned when no room name is given.
var ErrNoRoom = errors.New("session: room name required")

// Config describes one device session.
type Config struct {
	// Room names the shared document. It is also the local persistence
	// namespace: a new room name starts a fresh empty document.
	Room string
	// CurrentUser is the member id this device acts as. Required.
	CurrentUser string
	// UserName and UserRole seed the profile if this member is new.
	UserName string
	UserRole string
	// DeviceID identifies this replica; generated when empty.
	DeviceID string
	// DBPath is the local cache database file.
	DBPath string
	// RelayURL enables synchronization when set; empty runs fully local.
	RelayURL string
	// Secret optionally seals relay traffic for the room.
	Secret string
	Logger *slog.Logger
}

// Session is a live device session over the shared document.
type Session struct {
	Chores      *store.ChoreStore
	Bills       *store.BillStore
	Shopping    *store.ShoppingStore
	Calendar    *store.CalendarStore
	Wellness    *store.WellnessStore
	Messages    *store.MessageStore
	InfinityLog *store.InfinityLogStore
	Users       *store.UserStore
	Completions *store.CompletionStore

	doc    *crdt.Doc
	cache  *cache.Cache
	client *transport.Client
	db     *sql.DB
	logger *slog.Logger
	synced chan struct{}
}

// Open hydrates the document from the local cache, builds the stores, and
// starts background synchronization. The returned session is usable
// immediately: hydration happens before Open returns, and the network is
// never waited on.
func Open(cfg Config) (*Session, error) {
	if cfg.CurrentUser == "" {
		return nil, ErrNoCurrentUser
	}
	if cfg.Room == "" {
		return nil, ErrNoRoom
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = uuid.NewString()
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	doc := crdt.NewDoc(cfg.DeviceID, cfg.Logger)
	c := cache.New(db, cfg.Room, cfg.Logger)
	if err := c.Load(doc); err != nil {
		// Recoverable: the in-memory document is authoritative for the
		// session; the cache catches up on the next snapshot.
		cfg.Logger.Error("cache hydration failed, starting from empty state", "room", cfg.Room, "error", err)
	}
	c.Attach(doc)

	s := &Session{
		doc:    doc,
		cache:  c,
		db:     db,
		logger: cfg.Logger,
		synced: make(chan struct{}),
	}
	close(s.synced) // hydration is complete by the time Open returns

	s.Users = store.NewUserStore(doc, cfg.Logger)
	s.Chores = store.NewChoreStore(doc, s.Users, cfg.Logger)
	s.Bills = store.NewBillStore(doc, cfg.Logger)
	s.Shopping = store.NewShoppingStore(doc, cfg.Logger)
	s.Calendar = store.NewCalendarStore(doc, cfg.Logger)
	s.Wellness = store.NewWellnessStore(doc, cfg.Logger)
	s.Messages = store.NewMessageStore(doc, cfg.Logger)
	s.InfinityLog = store.NewInfinityLogStore(doc, cfg.Logger)
	s.Completions = store.NewCompletionStore(doc, cfg.Logger)

	s.Users.Initialize(cfg.CurrentUser, model.UserProfile{
		Name: cfg.UserName,
		Role: cfg.UserRole,
	})
	s.Messages.PruneExpired()

	if cfg.RelayURL != "" {
		client, err := transport.NewClient(doc, transport.Config{
			URL:    cfg.RelayURL,
			Room:   cfg.Room,
			Secret: cfg.Secret,
			Logger: cfg.Logger,
		})
		if err != nil {
			c.Close()
			db.Close()
			return nil, fmt.Errorf("create sync client: %w", err)
		}
		client.OnStatus(func(st transport.Status) {
			cfg.Logger.Info("sync status", "room", cfg.Room, "status", st.String())
		})
		client.Connect()
		s.client = client
	}

	return s, nil
}

// Synced is closed once the document has been hydrated from local storage.
func (s *Session) Synced() <-chan struct{} { return s.synced }

// Doc exposes the underlying document for tooling and tests.
func (s *Session) Doc() *crdt.Doc { return s.doc }

// SyncStatus reports the transport state; offline sessions are always
// disconnected.
func (s *Session) SyncStatus() transport.Status {
	if s.client == nil {
		return transport.StatusDisconnected
	}
	return s.client.Status()
}

// Close tears the session down: disconnects the relay, flushes the cache,
// and closes local storage.
func (s *Session) Close() {
	if s.client != nil {
		s.client.Close()
	}
	s.cache.Close()
	if err := s.db.Close(); err != nil {
		s.logger.Warn("close cache db", "error", err)
	}
}
