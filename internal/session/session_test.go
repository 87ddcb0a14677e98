package session

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/transport"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Room:        "test-room",
		CurrentUser: "alice",
		UserName:    "Alice",
		DBPath:      filepath.Join(t.TempDir(), "hearth.db"),
	}
}

func openSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestOpenRequiresCurrentUser(t *testing.T) {
	cfg := testConfig(t)
	cfg.CurrentUser = ""
	if _, err := Open(cfg); !errors.Is(err, ErrNoCurrentUser) {
		t.Fatalf("err = %v, want ErrNoCurrentUser", err)
	}
}

func TestOpenRequiresRoom(t *testing.T) {
	cfg := testConfig(t)
	cfg.Room = ""
	if _, err := Open(cfg); !errors.Is(err, ErrNoRoom) {
		t.Fatalf("err = %v, want ErrNoRoom", err)
	}
}

func TestSyncedClosedAfterOpen(t *testing.T) {
	s := openSession(t, testConfig(t))
	defer s.Close()

	select {
	case <-s.Synced():
	default:
		t.Fatal("Synced channel not closed after Open")
	}
}

func TestOfflineSessionIsDisconnected(t *testing.T) {
	s := openSession(t, testConfig(t))
	defer s.Close()

	if got := s.SyncStatus(); got != transport.StatusDisconnected {
		t.Fatalf("SyncStatus() = %v, want Disconnected", got)
	}
}

func TestStateSurvivesReopen(t *testing.T) {
	cfg := testConfig(t)

	s1 := openSession(t, cfg)
	chore := s1.Chores.Add("Dishes", []string{"alice", "bob"}, "daily", 10)
	s1.Users.AwardXP("alice", 150, "chore")
	s1.Close()

	s2 := openSession(t, cfg)
	defer s2.Close()

	chores := s2.Chores.Snapshot()
	if len(chores) != 1 || chores[0].ID != chore.ID {
		t.Fatalf("chores after reopen = %v, want the one added before close", chores)
	}
	profile, ok := s2.Users.Get("alice")
	if !ok {
		t.Fatal("profile missing after reopen")
	}
	if profile.XP != 150 {
		t.Fatalf("xp = %d, want 150 (reopen must not reseed the profile)", profile.XP)
	}
	if profile.Name != "Alice" {
		t.Fatalf("name = %q, want Alice", profile.Name)
	}
}

func TestRoomsAreIsolated(t *testing.T) {
	cfg := testConfig(t)
	s1 := openSession(t, cfg)
	s1.Shopping.Add("Milk", "alice")
	s1.Close()

	other := cfg
	other.Room = "other-room"
	s2 := openSession(t, other)
	defer s2.Close()

	if got := s2.Shopping.Snapshot(); len(got) != 0 {
		t.Fatalf("other room sees %d items, want 0", len(got))
	}
}

func TestExpiredMessagesPrunedOnOpen(t *testing.T) {
	cfg := testConfig(t)

	s1 := openSession(t, cfg)
	fresh := s1.Messages.Send("alice", "still here", "")
	stale := model.Message{
		ID:        "stale",
		Sender:    "alice",
		Text:      "long gone",
		Timestamp: time.Now().Add(-48 * time.Hour),
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}
	raw, _ := json.Marshal(stale)
	s1.Doc().Update(func(tx *crdt.Tx) {
		tx.Append("messages", stale.ID, raw)
	})
	s1.Close()

	s2 := openSession(t, cfg)
	defer s2.Close()

	msgs := s2.Messages.Snapshot()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1", len(msgs))
	}
	if msgs[0].ID != fresh.ID {
		t.Fatalf("surviving message = %q, want %q", msgs[0].ID, fresh.ID)
	}
}
