package crdt

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
)

// Delta is an incremental encoding of document changes: the entries some
// peer has not seen yet, grouped by collection and map name. Applying a
// delta is idempotent and order-independent, so deltas may be batched,
// re-sent, or delivered out of order without harm.
type Delta struct {
	Collections map[string][]Entry
	Maps        map[string][]Entry
}

func newDelta() Delta {
	return Delta{
		Collections: make(map[string][]Entry),
		Maps:        make(map[string][]Entry),
	}
}

// Empty reports whether the delta carries no entries.
func (d Delta) Empty() bool {
	return len(d.Collections) == 0 && len(d.Maps) == 0
}

// Encode serializes the delta to the compact binary wire format.
func (d Delta) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d); err != nil {
		return nil, fmt.Errorf("encode delta: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDelta parses a delta from its binary wire format.
func DecodeDelta(data []byte) (Delta, error) {
	var d Delta
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&d); err != nil {
		return Delta{}, fmt.Errorf("decode delta: %w", err)
	}
	if d.Collections == nil {
		d.Collections = make(map[string][]Entry)
	}
	if d.Maps == nil {
		d.Maps = make(map[string][]Entry)
	}
	return d, nil
}

// EncodeVector serializes a state vector for the sync handshake.
func EncodeVector(v Vector) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode vector: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeVector parses a state vector from its binary form.
func DecodeVector(data []byte) (Vector, error) {
	var v Vector
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	if v == nil {
		v = make(Vector)
	}
	return v, nil
}

// sortEntries orders entries by position stamp, falling back to id for map
// entries (which have no position).
func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Pos != entries[j].Pos {
			return entries[i].Pos.Less(entries[j].Pos)
		}
		return entries[i].ID < entries[j].ID
	})
}
