package store

import (
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/model"
)

// WellnessStore wraps the append-only wellness log. Entries are never
// edited or removed.
type WellnessStore struct {
	doc    *crdt.Doc
	logger *slog.Logger
	now    func() time.Time
}

func NewWellnessStore(doc *crdt.Doc, logger *slog.Logger) *WellnessStore {
	return &WellnessStore{doc: doc, logger: orDefault(logger), now: defaultClock}
}

// Snapshot returns all entries in insertion order.
func (s *WellnessStore) Snapshot() []model.WellnessEntry {
	return decodeRecords[model.WellnessEntry](s.doc.List(wellnessCollection), s.logger, wellnessCollection)
}

// Subscribe registers fn to run after any entry is logged on any replica.
func (s *WellnessStore) Subscribe(fn func()) func() {
	return s.doc.Subscribe(wellnessCollection, fn)
}

// Log appends an entry stamped with the current time.
func (s *WellnessStore) Log(entryType string, value float64, tags []string) model.WellnessEntry {
	e := model.WellnessEntry{
		ID:        uuid.NewString(),
		Type:      entryType,
		Value:     value,
		Timestamp: s.now(),
		Tags:      tags,
	}
	s.doc.Update(func(tx *crdt.Tx) {
		tx.Append(wellnessCollection, e.ID, mustJSON(e))
	})
	return e
}

// ByType returns entries of one type, newest first.
func (s *WellnessStore) ByType(entryType string) []model.WellnessEntry {
	var out []model.WellnessEntry
	for _, e := range s.Snapshot() {
		if e.Type == entryType {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}
