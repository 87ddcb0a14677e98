package store

import (
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/model"
)

// BillStore wraps the replicated bill list.
type BillStore struct {
	doc    *crdt.Doc
	logger *slog.Logger
	now    func() time.Time
}

func NewBillStore(doc *crdt.Doc, logger *slog.Logger) *BillStore {
	return &BillStore{doc: doc, logger: orDefault(logger), now: defaultClock}
}

// Snapshot returns all bills in insertion order.
func (s *BillStore) Snapshot() []model.Bill {
	return decodeRecords[model.Bill](s.doc.List(billsCollection), s.logger, billsCollection)
}

// Subscribe registers fn to run after any bill change on any replica.
func (s *BillStore) Subscribe(fn func()) func() {
	return s.doc.Subscribe(billsCollection, fn)
}

// Add creates an unpaid bill. Negative amounts are stored as zero.
func (s *BillStore) Add(name string, amount float64, dueDate time.Time, category string) model.Bill {
	if amount < 0 {
		amount = 0
	}
	b := model.Bill{
		ID:        uuid.NewString(),
		Name:      name,
		Amount:    amount,
		DueDate:   dueDate,
		Category:  category,
		CreatedAt: s.now(),
	}
	s.doc.Update(func(tx *crdt.Tx) {
		tx.Append(billsCollection, b.ID, mustJSON(b))
	})
	return b
}

// TogglePaid flips the bill's paid flag. No-op for unknown ids.
func (s *BillStore) TogglePaid(id string) {
	s.doc.Update(func(tx *crdt.Tx) {
		raw, ok := tx.GetByID(billsCollection, id)
		if !ok {
			return
		}
		var b model.Bill
		if err := json.Unmarshal(raw, &b); err != nil {
			s.logger.Warn("skipping malformed record", "collection", billsCollection, "id", id, "error", err)
			return
		}
		b.IsPaid = !b.IsPaid
		tx.ReplaceByID(billsCollection, id, mustJSON(b))
	})
}

// Remove deletes the bill.
func (s *BillStore) Remove(id string) {
	s.doc.Update(func(tx *crdt.Tx) {
		tx.DeleteByID(billsCollection, id)
	})
}

// Upcoming returns unpaid bills due within the given number of days,
// soonest first.
func (s *BillStore) Upcoming(withinDays int) []model.Bill {
	cutoff := s.now().AddDate(0, 0, withinDays)
	var out []model.Bill
	for _, b := range s.Snapshot() {
		if b.IsPaid || b.DueDate.After(cutoff) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// MonthlyTotal sums the paid bills due in the given month.
func (s *BillStore) MonthlyTotal(year int, month time.Month) float64 {
	var total float64
	for _, b := range s.Snapshot() {
		if b.IsPaid && b.DueDate.Year() == year && b.DueDate.Month() == month {
			total += b.Amount
		}
	}
	return total
}
