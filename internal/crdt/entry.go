package crdt

// Entry is the replicated unit of storage: one whole record plus merge
// metadata. Records are replaced wholesale, never field-patched, so merging
// two versions of the same id reduces to picking the higher stamp.
type Entry struct {
	// ID identifies the record within its collection. For keyed maps the
	// ID is the map key.
	ID string

	// Pos is the ordering key, assigned once at insertion and carried
	// unchanged through every replacement. Snapshot order is Pos order,
	// which makes it insertion order. Zero for map entries.
	Pos Stamp

	// Stamp identifies the last write to this id. The entry with the
	// higher stamp wins a merge.
	Stamp Stamp

	// Deleted marks a tombstone. Tombstones are retained so a delete
	// propagates to replicas that still hold the live entry.
	Deleted bool

	// Value is the JSON-encoded record. Nil when Deleted.
	Value []byte
}

// supersedes reports whether e should replace cur during a merge.
// A zero cur (id never seen) is always superseded.
func (e Entry) supersedes(cur Entry) bool {
	if cur.Stamp.IsZero() {
		return true
	}
	return cur.Stamp.Less(e.Stamp)
}
