package crdt

// Stamp is a Lamport timestamp with the originating replica ID as tie-break.
// Stamps are totally ordered, so two replicas can never produce equal stamps
// for distinct writes.
type Stamp struct {
	Counter uint64
	Replica string
}

// Less reports whether s is ordered before o.
func (s Stamp) Less(o Stamp) bool {
	if s.Counter != o.Counter {
		return s.Counter < o.Counter
	}
	return s.Replica < o.Replica
}

// IsZero reports whether s is the zero stamp.
func (s Stamp) IsZero() bool {
	return s.Counter == 0 && s.Replica == ""
}

// Vector summarizes which stamps a replica has already observed,
// per originating replica. It is the unit of sync negotiation: a peer
// sends its vector, and receives every entry the vector does not cover.
type Vector map[string]uint64

// Includes reports whether the vector already covers the given stamp.
func (v Vector) Includes(s Stamp) bool {
	return s.Counter <= v[s.Replica]
}

// Observe extends the vector to cover the given stamp.
func (v Vector) Observe(s Stamp) {
	if s.Counter > v[s.Replica] {
		v[s.Replica] = s.Counter
	}
}

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for r, c := range v {
		out[r] = c
	}
	return out
}
