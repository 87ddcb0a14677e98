package store

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/model"
)

// InfinityLogStore wraps the tagged memory log. Items keep their insertion
// order forever; the only mutation is removal.
type InfinityLogStore struct {
	doc    *crdt.Doc
	logger *slog.Logger
	now    func() time.Time
}

func NewInfinityLogStore(doc *crdt.Doc, logger *slog.Logger) *InfinityLogStore {
	return &InfinityLogStore{doc: doc, logger: orDefault(logger), now: defaultClock}
}

// Snapshot returns all items in insertion order.
func (s *InfinityLogStore) Snapshot() []model.InfinityLogItem {
	return decodeRecords[model.InfinityLogItem](s.doc.List(infinityLogCollection), s.logger, infinityLogCollection)
}

// Subscribe registers fn to run after any change on any replica.
func (s *InfinityLogStore) Subscribe(fn func()) func() {
	return s.doc.Subscribe(infinityLogCollection, fn)
}

// Add appends an item.
func (s *InfinityLogStore) Add(content string, tags []string) model.InfinityLogItem {
	item := model.InfinityLogItem{
		ID:        uuid.NewString(),
		Content:   content,
		Tags:      tags,
		CreatedAt: s.now(),
	}
	s.doc.Update(func(tx *crdt.Tx) {
		tx.Append(infinityLogCollection, item.ID, mustJSON(item))
	})
	return item
}

// Remove deletes an item.
func (s *InfinityLogStore) Remove(id string) {
	s.doc.Update(func(tx *crdt.Tx) {
		tx.DeleteByID(infinityLogCollection, id)
	})
}

// ByTag returns items carrying the given tag, in insertion order.
func (s *InfinityLogStore) ByTag(tag string) []model.InfinityLogItem {
	var out []model.InfinityLogItem
	for _, item := range s.Snapshot() {
		for _, t := range item.Tags {
			if t == tag {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
