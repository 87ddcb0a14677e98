package crdt

// Tx is a single transaction against a Doc. All methods run with the
// document lock held; the transaction's entries commit together when the
// Update callback returns.
type Tx struct {
	doc   *Doc
	delta Delta
}

// record stages an entry into both the document state and the transaction's
// delta.
func (tx *Tx) record(table map[string]Entry, bucket map[string][]Entry, name string, e Entry) {
	table[e.ID] = e
	bucket[name] = append(bucket[name], e)
}

// Append inserts a new record at the end of the named collection.
func (tx *Tx) Append(name, id string, value []byte) {
	s := tx.doc.nextStamp()
	e := Entry{ID: id, Pos: s, Stamp: s, Value: value}
	tx.record(tx.doc.collection(name), tx.delta.Collections, name, e)
}

// ReplaceByID swaps the record stored under id for a new value, keeping its
// position in the collection. Callers never observe the record absent: the
// delete and insert are one entry. No-op if the id does not exist or is
// already deleted; a stale caller racing a concurrent delete is expected.
// Returns whether a replacement happened.
func (tx *Tx) ReplaceByID(name, id string, value []byte) bool {
	coll := tx.doc.collection(name)
	cur, ok := coll[id]
	if !ok || cur.Deleted {
		return false
	}
	e := Entry{ID: id, Pos: cur.Pos, Stamp: tx.doc.nextStamp(), Value: value}
	tx.record(coll, tx.delta.Collections, name, e)
	return true
}

// DeleteByID tombstones the record stored under id. No-op if absent.
func (tx *Tx) DeleteByID(name, id string) bool {
	coll := tx.doc.collection(name)
	cur, ok := coll[id]
	if !ok || cur.Deleted {
		return false
	}
	e := Entry{ID: id, Pos: cur.Pos, Stamp: tx.doc.nextStamp(), Deleted: true}
	tx.record(coll, tx.delta.Collections, name, e)
	return true
}

// List returns the live values of a collection in insertion order, as seen
// by this transaction.
func (tx *Tx) List(name string) [][]byte {
	// Snapshot under the already-held lock; reuse the Doc sort.
	coll := tx.doc.collections[name]
	live := make([]Entry, 0, len(coll))
	for _, e := range coll {
		if !e.Deleted {
			live = append(live, e)
		}
	}
	sortEntries(live)
	out := make([][]byte, len(live))
	for i, e := range live {
		out[i] = e.Value
	}
	return out
}

// GetByID returns the live record stored under id in the named collection.
func (tx *Tx) GetByID(name, id string) ([]byte, bool) {
	e, ok := tx.doc.collections[name][id]
	if !ok || e.Deleted {
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key in the named map, overwriting any prior value.
func (tx *Tx) Set(name, key string, value []byte) {
	e := Entry{ID: key, Stamp: tx.doc.nextStamp(), Value: value}
	tx.record(tx.doc.kmap(name), tx.delta.Maps, name, e)
}

// Get returns the live value stored under key in the named map.
func (tx *Tx) Get(name, key string) ([]byte, bool) {
	e, ok := tx.doc.maps[name][key]
	if !ok || e.Deleted {
		return nil, false
	}
	return e.Value, true
}
