package store

import (
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/recurrence"
)

// CalendarStore wraps the replicated event list. Locked events cannot be
// edited or removed until unlocked.
type CalendarStore struct {
	doc    *crdt.Doc
	logger *slog.Logger
	now    func() time.Time
}

func NewCalendarStore(doc *crdt.Doc, logger *slog.Logger) *CalendarStore {
	return &CalendarStore{doc: doc, logger: orDefault(logger), now: defaultClock}
}

// Snapshot returns all events in insertion order.
func (s *CalendarStore) Snapshot() []model.CalendarEvent {
	return decodeRecords[model.CalendarEvent](s.doc.List(calendarCollection), s.logger, calendarCollection)
}

// Subscribe registers fn to run after any event change on any replica.
func (s *CalendarStore) Subscribe(fn func()) func() {
	return s.doc.Subscribe(calendarCollection, fn)
}

// Add creates an event. No-op when start is after end. An unparseable
// recurrence rule is dropped and the event stored as one-off.
func (s *CalendarStore) Add(title string, start, end time.Time, eventType, recurrenceRule string) (model.CalendarEvent, bool) {
	if start.After(end) {
		return model.CalendarEvent{}, false
	}
	if recurrenceRule != "" {
		if _, err := recurrence.Parse(recurrenceRule); err != nil {
			s.logger.Warn("dropping invalid recurrence rule", "rule", recurrenceRule, "error", err)
			recurrenceRule = ""
		}
	}

	ev := model.CalendarEvent{
		ID:         uuid.NewString(),
		Title:      title,
		Start:      start,
		End:        end,
		Type:       eventType,
		Recurrence: recurrenceRule,
		CreatedAt:  s.now(),
	}
	s.doc.Update(func(tx *crdt.Tx) {
		tx.Append(calendarCollection, ev.ID, mustJSON(ev))
	})
	return ev, true
}

// Update replaces an event's fields. No-op for unknown, locked, or
// start-after-end inputs.
func (s *CalendarStore) Update(id, title string, start, end time.Time, eventType, recurrenceRule string) {
	if start.After(end) {
		return
	}
	if recurrenceRule != "" {
		if _, err := recurrence.Parse(recurrenceRule); err != nil {
			s.logger.Warn("dropping invalid recurrence rule", "rule", recurrenceRule, "error", err)
			recurrenceRule = ""
		}
	}
	s.doc.Update(func(tx *crdt.Tx) {
		ev, ok := s.getTx(tx, id)
		if !ok || ev.IsLocked {
			return
		}
		ev.Title = title
		ev.Start = start
		ev.End = end
		ev.Type = eventType
		ev.Recurrence = recurrenceRule
		tx.ReplaceByID(calendarCollection, id, mustJSON(ev))
	})
}

// Remove deletes the event unless it is locked.
func (s *CalendarStore) Remove(id string) {
	s.doc.Update(func(tx *crdt.Tx) {
		ev, ok := s.getTx(tx, id)
		if !ok || ev.IsLocked {
			return
		}
		tx.DeleteByID(calendarCollection, id)
	})
}

// SetLocked flips the lock on an event. Only this operation may touch a
// locked event.
func (s *CalendarStore) SetLocked(id string, locked bool) {
	s.doc.Update(func(tx *crdt.Tx) {
		ev, ok := s.getTx(tx, id)
		if !ok {
			return
		}
		ev.IsLocked = locked
		tx.ReplaceByID(calendarCollection, id, mustJSON(ev))
	})
}

// EventOccurrence is one concrete occurrence of an event within a window.
type EventOccurrence struct {
	Event model.CalendarEvent
	Start time.Time
	End   time.Time
}

// Expanded returns every occurrence in [rangeStart, rangeEnd): one-off
// events that overlap the window plus expansions of recurring events,
// sorted by start time.
func (s *CalendarStore) Expanded(rangeStart, rangeEnd time.Time) []EventOccurrence {
	var out []EventOccurrence
	for _, ev := range s.Snapshot() {
		if ev.Recurrence == "" {
			if ev.Start.Before(rangeEnd) && ev.End.After(rangeStart) {
				out = append(out, EventOccurrence{Event: ev, Start: ev.Start, End: ev.End})
			}
			continue
		}
		rule, err := recurrence.Parse(ev.Recurrence)
		if err != nil {
			s.logger.Warn("skipping event with invalid recurrence", "id", ev.ID, "error", err)
			continue
		}
		for _, occ := range recurrence.Expand(rule, ev.Start, ev.End, rangeStart, rangeEnd) {
			out = append(out, EventOccurrence{Event: ev, Start: occ.Start, End: occ.End})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (s *CalendarStore) getTx(tx *crdt.Tx, id string) (model.CalendarEvent, bool) {
	raw, ok := tx.GetByID(calendarCollection, id)
	if !ok {
		return model.CalendarEvent{}, false
	}
	var ev model.CalendarEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		s.logger.Warn("skipping malformed record", "collection", calendarCollection, "id", id, "error", err)
		return model.CalendarEvent{}, false
	}
	return ev, true
}
