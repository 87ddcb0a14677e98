package store

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/model"
)

// ShoppingStore wraps the replicated shopping list.
type ShoppingStore struct {
	doc    *crdt.Doc
	logger *slog.Logger
	now    func() time.Time
}

func NewShoppingStore(doc *crdt.Doc, logger *slog.Logger) *ShoppingStore {
	return &ShoppingStore{doc: doc, logger: orDefault(logger), now: defaultClock}
}

// Snapshot returns the list in insertion order.
func (s *ShoppingStore) Snapshot() []model.ShoppingItem {
	return decodeRecords[model.ShoppingItem](s.doc.List(shoppingCollection), s.logger, shoppingCollection)
}

// Subscribe registers fn to run after any list change on any replica.
func (s *ShoppingStore) Subscribe(fn func()) func() {
	return s.doc.Subscribe(shoppingCollection, fn)
}

// Add appends an unchecked item.
func (s *ShoppingStore) Add(name, addedBy string) model.ShoppingItem {
	item := model.ShoppingItem{
		ID:        uuid.NewString(),
		Name:      name,
		AddedBy:   addedBy,
		CreatedAt: s.now(),
	}
	s.doc.Update(func(tx *crdt.Tx) {
		tx.Append(shoppingCollection, item.ID, mustJSON(item))
	})
	return item
}

// Toggle flips the item's checked flag. No-op for unknown ids.
func (s *ShoppingStore) Toggle(id string) {
	s.doc.Update(func(tx *crdt.Tx) {
		raw, ok := tx.GetByID(shoppingCollection, id)
		if !ok {
			return
		}
		var item model.ShoppingItem
		if err := json.Unmarshal(raw, &item); err != nil {
			s.logger.Warn("skipping malformed record", "collection", shoppingCollection, "id", id, "error", err)
			return
		}
		item.IsChecked = !item.IsChecked
		tx.ReplaceByID(shoppingCollection, id, mustJSON(item))
	})
}

// Remove deletes a single item.
func (s *ShoppingStore) Remove(id string) {
	s.doc.Update(func(tx *crdt.Tx) {
		tx.DeleteByID(shoppingCollection, id)
	})
}

// ClearChecked deletes every checked item in one transaction. Iterates the
// snapshot from the end backward so deletions never shift the position of
// items still to be visited.
func (s *ShoppingStore) ClearChecked() {
	s.doc.Update(func(tx *crdt.Tx) {
		items := decodeRecords[model.ShoppingItem](tx.List(shoppingCollection), s.logger, shoppingCollection)
		for i := len(items) - 1; i >= 0; i-- {
			if items[i].IsChecked {
				tx.DeleteByID(shoppingCollection, items[i].ID)
			}
		}
	})
}
