package transport

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/dukerupert/hearth/internal/crdt"
)

// Frame kinds exchanged between a replica and the relay.
const (
	// kindHello opens a sync round: the payload is the sender's state
	// vector. Sent by a client on every (re)connect, so reconciliation
	// never assumes delta continuity across a drop.
	kindHello = "hello"

	// kindSync answers a hello: the payload carries the responder's state
	// vector plus the delta the hello sender is missing.
	kindSync = "sync"

	// kindDelta carries an incremental update in steady state.
	kindDelta = "delta"
)

// frame is the wire envelope. The payload is gob-encoded and, for rooms
// with a shared secret, sealed.
type frame struct {
	Kind    string
	Payload []byte
}

// syncPayload is the body of a kindSync frame.
type syncPayload struct {
	Vector []byte // responder's encoded state vector
	Delta  []byte // encoded delta the hello sender was missing
}

func encodeFrame(f frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeFrame(data []byte) (frame, error) {
	var f frame
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

func encodeSyncPayload(v crdt.Vector, d crdt.Delta) ([]byte, error) {
	ev, err := crdt.EncodeVector(v)
	if err != nil {
		return nil, err
	}
	ed, err := d.Encode()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(syncPayload{Vector: ev, Delta: ed}); err != nil {
		return nil, fmt.Errorf("encode sync payload: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeSyncPayload(data []byte) (crdt.Vector, crdt.Delta, error) {
	var p syncPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&p); err != nil {
		return nil, crdt.Delta{}, fmt.Errorf("decode sync payload: %w", err)
	}
	v, err := crdt.DecodeVector(p.Vector)
	if err != nil {
		return nil, crdt.Delta{}, err
	}
	d, err := crdt.DecodeDelta(p.Delta)
	if err != nil {
		return nil, crdt.Delta{}, err
	}
	return v, d, nil
}
