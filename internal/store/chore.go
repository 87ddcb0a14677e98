package store

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/model"
)

// ChoreStore wraps the replicated chore list. Chores rotate round-robin
// through their assignees; completing one appends to the completion log and
// awards the chore's points to the member whose turn it was.
type ChoreStore struct {
	doc    *crdt.Doc
	users  *UserStore
	logger *slog.Logger
	now    func() time.Time
}

// NewChoreStore creates the store. users may be nil, in which case rotation
// still works but awards no XP (used by tests and headless tooling).
func NewChoreStore(doc *crdt.Doc, users *UserStore, logger *slog.Logger) *ChoreStore {
	return &ChoreStore{doc: doc, users: users, logger: orDefault(logger), now: defaultClock}
}

// Snapshot returns all chores in insertion order.
func (s *ChoreStore) Snapshot() []model.Chore {
	return decodeRecords[model.Chore](s.doc.List(choresCollection), s.logger, choresCollection)
}

// Subscribe registers fn to run after any chore change on any replica.
func (s *ChoreStore) Subscribe(fn func()) func() {
	return s.doc.Subscribe(choresCollection, fn)
}

// Add creates a chore starting at the first assignee's turn.
func (s *ChoreStore) Add(title string, assignees []string, frequency string, points int) model.Chore {
	c := model.Chore{
		ID:        uuid.NewString(),
		Title:     title,
		Assignees: assignees,
		Frequency: frequency,
		Points:    points,
		CreatedAt: s.now(),
	}
	s.doc.Update(func(tx *crdt.Tx) {
		tx.Append(choresCollection, c.ID, mustJSON(c))
	})
	return c
}

// Rotate marks the chore done by the member whose turn it is: advances the
// turn index modulo the assignee count, stamps the completion time, logs a
// completion event, and awards the chore's points. No-op when the chore is
// gone or has no assignees; rotation never divides by zero.
func (s *ChoreStore) Rotate(id string) {
	s.doc.Update(func(tx *crdt.Tx) {
		c, ok := s.getTx(tx, id)
		if !ok || len(c.Assignees) == 0 {
			return
		}

		completedBy := c.CurrentAssignee()
		now := s.now()
		c.CurrentTurnIndex = (c.CurrentTurnIndex + 1) % len(c.Assignees)
		c.LastCompleted = &now
		tx.ReplaceByID(choresCollection, id, mustJSON(c))

		ev := model.CompletionEvent{
			ID:          uuid.NewString(),
			ChoreID:     c.ID,
			MemberID:    completedBy,
			Points:      c.Points,
			CompletedAt: now,
		}
		tx.Append(completionsCollection, ev.ID, mustJSON(ev))

		if s.users != nil && completedBy != "" {
			s.users.awardXP(tx, completedBy, c.Points, "chore: "+c.Title)
		}
	})
}

// Update replaces a chore's editable fields, clamping the turn index back
// into range when the assignee list shrinks.
func (s *ChoreStore) Update(id, title string, assignees []string, frequency string, points int) {
	s.doc.Update(func(tx *crdt.Tx) {
		c, ok := s.getTx(tx, id)
		if !ok {
			return
		}
		c.Title = title
		c.Assignees = assignees
		c.Frequency = frequency
		c.Points = points
		if len(assignees) == 0 {
			c.CurrentTurnIndex = 0
		} else {
			c.CurrentTurnIndex %= len(assignees)
		}
		tx.ReplaceByID(choresCollection, id, mustJSON(c))
	})
}

// Remove deletes the chore. Its completion history stays in the log.
func (s *ChoreStore) Remove(id string) {
	s.doc.Update(func(tx *crdt.Tx) {
		tx.DeleteByID(choresCollection, id)
	})
}

func (s *ChoreStore) getTx(tx *crdt.Tx, id string) (model.Chore, bool) {
	raw, ok := tx.GetByID(choresCollection, id)
	if !ok {
		return model.Chore{}, false
	}
	var c model.Chore
	if err := json.Unmarshal(raw, &c); err != nil {
		s.logger.Warn("skipping malformed record", "collection", choresCollection, "id", id, "error", err)
		return model.Chore{}, false
	}
	return c, true
}
