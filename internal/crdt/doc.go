package crdt

import (
	"log/slog"
	"sort"
	"sync"
)

// Doc is a replicated document: a set of named ordered collections and named
// keyed maps sharing one Lamport clock. All mutation goes through Update so
// that a multi-record change commits as a single unit: observers and delta
// subscribers see whole transactions, never intermediate states.
//
// Two docs that have exchanged all entries (directly or through any chain of
// peers) hold identical state regardless of delivery order: entries merge
// per id by last-writer-wins on totally ordered stamps.
type Doc struct {
	mu      sync.Mutex
	replica string
	counter uint64
	vector  Vector

	collections map[string]map[string]Entry
	maps        map[string]map[string]Entry

	obsSeq    int
	observers map[string]map[int]func()
	deltaSubs []func(d Delta, local bool)

	logger *slog.Logger
}

// NewDoc creates an empty document owned by the given replica ID.
func NewDoc(replica string, logger *slog.Logger) *Doc {
	if logger == nil {
		logger = slog.Default()
	}
	return &Doc{
		replica:     replica,
		vector:      make(Vector),
		collections: make(map[string]map[string]Entry),
		maps:        make(map[string]map[string]Entry),
		observers:   make(map[string]map[int]func()),
		logger:      logger,
	}
}

// Replica returns the document's replica ID.
func (d *Doc) Replica() string { return d.replica }

// Vector returns a copy of the document's current state vector.
func (d *Doc) Vector() Vector {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.vector.Clone()
}

// nextStamp advances the Lamport clock. Caller holds d.mu.
func (d *Doc) nextStamp() Stamp {
	d.counter++
	s := Stamp{Counter: d.counter, Replica: d.replica}
	d.vector.Observe(s)
	return s
}

// Update runs fn inside a transaction. Every mutation fn makes commits
// atomically: observers of the touched collections fire exactly once after
// fn returns, and one delta covering the whole transaction is handed to
// delta subscribers. Update never blocks on I/O; subscribers are expected
// to hand work off (persistence, network) rather than do it inline.
func (d *Doc) Update(fn func(tx *Tx)) {
	d.mu.Lock()
	tx := &Tx{doc: d, delta: newDelta()}
	fn(tx)
	delta := tx.delta
	d.mu.Unlock()

	if delta.Empty() {
		return
	}
	d.broadcast(delta, true)
}

// ApplyDelta merges entries received from another replica. It is idempotent:
// entries the document already covers are skipped. Only the entries that
// actually changed state are forwarded to delta subscribers (as non-local),
// and only observers of touched collections fire.
func (d *Doc) ApplyDelta(delta Delta) {
	d.mu.Lock()
	applied := newDelta()

	for name, entries := range delta.Collections {
		coll := d.collection(name)
		for _, e := range entries {
			if d.merge(coll, e) {
				applied.Collections[name] = append(applied.Collections[name], e)
			}
		}
	}
	for name, entries := range delta.Maps {
		m := d.kmap(name)
		for _, e := range entries {
			if d.merge(m, e) {
				applied.Maps[name] = append(applied.Maps[name], e)
			}
		}
	}
	d.mu.Unlock()

	if applied.Empty() {
		return
	}
	d.broadcast(applied, false)
}

// merge applies one remote entry to a table. Caller holds d.mu.
// Returns true when the entry changed state.
func (d *Doc) merge(table map[string]Entry, e Entry) bool {
	// Keep the clock ahead of everything observed, so local writes after
	// a merge always win ties against what they replace.
	if e.Stamp.Counter > d.counter {
		d.counter = e.Stamp.Counter
	}
	d.vector.Observe(e.Stamp)

	cur, ok := table[e.ID]
	if ok && !e.supersedes(cur) {
		return false
	}
	table[e.ID] = e
	return true
}

// DeltaSince returns every entry, tombstones included, that the given
// vector does not cover. An empty vector yields the full state.
func (d *Doc) DeltaSince(v Vector) Delta {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := newDelta()
	for name, coll := range d.collections {
		for _, e := range coll {
			if !v.Includes(e.Stamp) {
				out.Collections[name] = append(out.Collections[name], e)
			}
		}
	}
	for name, m := range d.maps {
		for _, e := range m {
			if !v.Includes(e.Stamp) {
				out.Maps[name] = append(out.Maps[name], e)
			}
		}
	}
	return out
}

// List returns the live records of a collection in insertion order.
func (d *Doc) List(name string) [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	coll := d.collections[name]
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

// Get returns the live record stored under key in the named map.
func (d *Doc) Get(name, key string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.maps[name][key]
	if !ok || e.Deleted {
		return nil, false
	}
	return e.Value, true
}

// Keys returns the live keys of the named map, sorted.
func (d *Doc) Keys(name string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var keys []string
	for k, e := range d.maps[name] {
		if !e.Deleted {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Subscribe registers fn to run after every committed transaction or merged
// remote delta that touches the named collection or map. The returned
// function unsubscribes; forgetting to call it leaks the callback but
// cannot corrupt state.
func (d *Doc) Subscribe(name string, fn func()) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.obsSeq++
	id := d.obsSeq
	if d.observers[name] == nil {
		d.observers[name] = make(map[int]func())
	}
	d.observers[name][id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.observers[name], id)
	}
}

// OnDelta registers fn to receive every delta the document commits or
// merges. local is true for deltas originating from this replica's Update
// calls. Used by the durable cache (all deltas) and the sync transport
// (local deltas only).
func (d *Doc) OnDelta(fn func(d Delta, local bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deltaSubs = append(d.deltaSubs, fn)
}

// broadcast fires delta subscribers and collection observers for a
// committed delta. Runs without d.mu held.
func (d *Doc) broadcast(delta Delta, local bool) {
	d.mu.Lock()
	subs := make([]func(Delta, bool), len(d.deltaSubs))
	copy(subs, d.deltaSubs)

	var fns []func()
	seen := make(map[string]struct{})
	notify := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		for _, fn := range d.observers[name] {
			fns = append(fns, fn)
		}
	}
	for name := range delta.Collections {
		notify(name)
	}
	for name := range delta.Maps {
		notify(name)
	}
	d.mu.Unlock()

	for _, fn := range subs {
		fn(delta, local)
	}
	for _, fn := range fns {
		fn()
	}
}

// collection returns the named collection table, creating it if absent.
// Caller holds d.mu.
func (d *Doc) collection(name string) map[string]Entry {
	coll, ok := d.collections[name]
	if !ok {
		coll = make(map[string]Entry)
		d.collections[name] = coll
	}
	return coll
}

// kmap returns the named map table, creating it if absent. Caller holds d.mu.
func (d *Doc) kmap(name string) map[string]Entry {
	m, ok := d.maps[name]
	if !ok {
		m = make(map[string]Entry)
		d.maps[name] = m
	}
	return m
}
