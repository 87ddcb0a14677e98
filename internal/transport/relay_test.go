package transport

import (
	"testing"

	"github.com/dukerupert/hearth/internal/crdt"
)

func helloFrame(t *testing.T, v crdt.Vector) []byte {
	t.Helper()
	payload, err := crdt.EncodeVector(v)
	if err != nil {
		t.Fatalf("encode vector: %v", err)
	}
	data, err := encodeFrame(frame{Kind: kindHello, Payload: payload})
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return data
}

func deltaFrame(t *testing.T, d crdt.Delta) []byte {
	t.Helper()
	payload, err := d.Encode()
	if err != nil {
		t.Fatalf("encode delta: %v", err)
	}
	data, err := encodeFrame(frame{Kind: kindDelta, Payload: payload})
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return data
}

func testRoom(t *testing.T) *Room {
	t.Helper()
	hub := NewHub(nil, "", nil)
	room, err := hub.Room("test-room")
	if err != nil {
		t.Fatalf("open room: %v", err)
	}
	return room
}

func TestHelloGetsFullStateSyncReply(t *testing.T) {
	room := testRoom(t)

	// Seed the room replica with existing state.
	seed := crdt.NewDoc("seed", nil)
	seed.Update(func(tx *crdt.Tx) { tx.Append("chores", "c1", []byte(`{"id":"c1"}`)) })
	room.doc.ApplyDelta(seed.DeltaSince(crdt.Vector{}))

	client := &roomClient{send: make(chan []byte, 4)}
	room.register(client)

	room.handleFrame(client, helloFrame(t, crdt.Vector{}))

	select {
	case data := <-client.send:
		f, err := decodeFrame(data)
		if err != nil || f.Kind != kindSync {
			t.Fatalf("reply = %+v, err %v", f, err)
		}
		_, delta, err := decodeSyncPayload(f.Payload)
		if err != nil {
			t.Fatalf("decode sync payload: %v", err)
		}
		device := crdt.NewDoc("device", nil)
		device.ApplyDelta(delta)
		if n := len(device.List("chores")); n != 1 {
			t.Errorf("device restored %d chores from sync, want 1", n)
		}
	default:
		t.Fatal("no sync reply queued")
	}
}

func TestDeltaAppliedAndBroadcastToOthers(t *testing.T) {
	room := testRoom(t)

	sender := &roomClient{send: make(chan []byte, 4)}
	other := &roomClient{send: make(chan []byte, 4)}
	room.register(sender)
	room.register(other)

	src := crdt.NewDoc("device", nil)
	src.Update(func(tx *crdt.Tx) { tx.Append("bills", "b1", []byte(`{"id":"b1"}`)) })
	data := deltaFrame(t, src.DeltaSince(crdt.Vector{}))

	room.handleFrame(sender, data)

	if n := len(room.doc.List("bills")); n != 1 {
		t.Errorf("room replica has %d bills, want 1", n)
	}
	select {
	case got := <-other.send:
		if string(got) != string(data) {
			t.Error("forwarded frame differs from original")
		}
	default:
		t.Error("other client did not receive the delta")
	}
	select {
	case <-sender.send:
		t.Error("delta echoed back to its sender")
	default:
	}
}

func TestSealedRoomDropsPlaintextFrames(t *testing.T) {
	hub := NewHub(nil, "family-secret", nil)
	room, err := hub.Room("sealed-room")
	if err != nil {
		t.Fatalf("open room: %v", err)
	}

	client := &roomClient{send: make(chan []byte, 4)}
	room.register(client)

	src := crdt.NewDoc("device", nil)
	src.Update(func(tx *crdt.Tx) { tx.Append("bills", "b1", []byte(`{"id":"b1"}`)) })
	room.handleFrame(client, deltaFrame(t, src.DeltaSince(crdt.Vector{})))

	if n := len(room.doc.List("bills")); n != 0 {
		t.Errorf("unsealed frame was applied to a sealed room")
	}
}

func TestHubReusesRooms(t *testing.T) {
	hub := NewHub(nil, "", nil)
	a, _ := hub.Room("same")
	b, _ := hub.Room("same")
	if a != b {
		t.Error("hub created two instances of one room")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	in := frame{Kind: kindDelta, Payload: []byte{1, 2, 3}}
	data, err := encodeFrame(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := decodeFrame(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Kind != in.Kind || string(out.Payload) != string(in.Payload) {
		t.Errorf("round trip = %+v", out)
	}
}
