package transport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/hearth/internal/crdt"
)

func startRelay(t *testing.T, secret string) string {
	t.Helper()
	hub := NewHub(nil, secret, nil)
	srv := httptest.NewServer(HandleSync(hub))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func startClient(t *testing.T, doc *crdt.Doc, url, room, secret string) *Client {
	t.Helper()
	c, err := NewClient(doc, Config{URL: url, Room: room, Secret: secret})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.Connect()
	t.Cleanup(c.Close)
	return c
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestTwoDevicesSyncThroughRelay(t *testing.T) {
	url := startRelay(t, "")

	docA := crdt.NewDoc("phone", nil)
	docB := crdt.NewDoc("tablet", nil)
	startClient(t, docA, url, "smith-house", "")
	startClient(t, docB, url, "smith-house", "")

	docA.Update(func(tx *crdt.Tx) { tx.Append("chores", "c1", []byte(`{"id":"c1","title":"Trash"}`)) })

	waitFor(t, "delta to reach tablet", func() bool {
		return len(docB.List("chores")) == 1
	})
}

func TestLateJoinerCatchesUpViaHandshake(t *testing.T) {
	url := startRelay(t, "")

	docA := crdt.NewDoc("phone", nil)
	a := startClient(t, docA, url, "smith-house", "")

	waitFor(t, "phone to connect", func() bool { return a.Status() == StatusConnected })
	docA.Update(func(tx *crdt.Tx) { tx.Append("bills", "b1", []byte(`{"id":"b1"}`)) })
	waitFor(t, "relay to hold the bill", func() bool { return a.Status() == StatusConnected })

	// The tablet was offline for the write; its handshake must recover it.
	docB := crdt.NewDoc("tablet", nil)
	startClient(t, docB, url, "smith-house", "")

	waitFor(t, "late joiner to catch up", func() bool {
		return len(docB.List("bills")) == 1
	})
}

func TestOfflineEditsFlowBackOnConnect(t *testing.T) {
	url := startRelay(t, "")

	// The device edits before ever connecting.
	docA := crdt.NewDoc("phone", nil)
	docA.Update(func(tx *crdt.Tx) { tx.Append("chores", "c1", []byte(`{"id":"c1"}`)) })
	startClient(t, docA, url, "smith-house", "")

	docB := crdt.NewDoc("tablet", nil)
	startClient(t, docB, url, "smith-house", "")

	waitFor(t, "pre-connect edit to propagate", func() bool {
		return len(docB.List("chores")) == 1
	})
}

func TestSealedRoomSyncs(t *testing.T) {
	url := startRelay(t, "family-secret")

	docA := crdt.NewDoc("phone", nil)
	docB := crdt.NewDoc("tablet", nil)
	startClient(t, docA, url, "smith-house", "family-secret")
	startClient(t, docB, url, "smith-house", "family-secret")

	docA.Update(func(tx *crdt.Tx) { tx.Set("users", "u1", []byte(`{"id":"u1"}`)) })

	waitFor(t, "sealed delta to reach tablet", func() bool {
		_, ok := docB.Get("users", "u1")
		return ok
	})
}

func TestStatusTransitions(t *testing.T) {
	url := startRelay(t, "")

	doc := crdt.NewDoc("phone", nil)
	c, err := NewClient(doc, Config{URL: url, Room: "room"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	statusCh := make(chan Status, 16)
	c.OnStatus(func(s Status) { statusCh <- s })
	c.Connect()

	sawConnected := false
	deadline := time.After(10 * time.Second)
	for !sawConnected {
		select {
		case s := <-statusCh:
			if s == StatusConnected {
				sawConnected = true
			}
		case <-deadline:
			t.Fatal("never reached connected")
		}
	}
	c.Close()
	if c.Status() != StatusDisconnected {
		t.Errorf("status after close = %v, want disconnected", c.Status())
	}
}
