package store

import (
	"testing"
	"time"
)

var (
	evStart = time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	evEnd   = evStart.Add(time.Hour)
)

func TestCalendarAddRejectsBackwardsRange(t *testing.T) {
	s := NewCalendarStore(testDoc(), nil)
	if _, ok := s.Add("Backwards", evEnd, evStart, "family", ""); ok {
		t.Error("expected start-after-end to be rejected")
	}
	if n := len(s.Snapshot()); n != 0 {
		t.Errorf("snapshot has %d events, want 0", n)
	}
}

func TestCalendarAddDropsInvalidRecurrence(t *testing.T) {
	s := NewCalendarStore(testDoc(), nil)
	ev, ok := s.Add("Piano", evStart, evEnd, "lesson", "FREQ=WEEKLY;INTERVAL=0")
	if !ok {
		t.Fatal("event should still be created")
	}
	if ev.Recurrence != "" {
		t.Errorf("recurrence = %q, want dropped", ev.Recurrence)
	}
}

func TestCalendarUpdateIsReplaceByID(t *testing.T) {
	s := NewCalendarStore(testDoc(), nil)
	ev, _ := s.Add("Dinner", evStart, evEnd, "family", "")
	s.Add("Other", evStart.Add(2*time.Hour), evEnd.Add(2*time.Hour), "family", "")

	s.Update(ev.ID, "Dinner at Gran's", evStart, evEnd.Add(30*time.Minute), "family", "")

	events := s.Snapshot()
	if events[0].Title != "Dinner at Gran's" {
		t.Errorf("events[0] = %+v; update must keep list position", events[0])
	}
	if !events[0].End.Equal(evEnd.Add(30 * time.Minute)) {
		t.Errorf("end = %v", events[0].End)
	}
}

func TestCalendarLockBlocksEditAndRemove(t *testing.T) {
	s := NewCalendarStore(testDoc(), nil)
	ev, _ := s.Add("Recital", evStart, evEnd, "school", "")
	s.SetLocked(ev.ID, true)

	s.Update(ev.ID, "Hijacked", evStart, evEnd, "school", "")
	s.Remove(ev.ID)

	events := s.Snapshot()
	if len(events) != 1 {
		t.Fatalf("locked event was removed")
	}
	if events[0].Title != "Recital" {
		t.Errorf("locked event was edited: %q", events[0].Title)
	}

	s.SetLocked(ev.ID, false)
	s.Remove(ev.ID)
	if n := len(s.Snapshot()); n != 0 {
		t.Errorf("unlock then remove left %d events", n)
	}
}

func TestCalendarExpandedIncludesRecurrences(t *testing.T) {
	s := NewCalendarStore(testDoc(), nil)
	s.Add("Piano", evStart, evEnd, "lesson", "FREQ=WEEKLY")
	s.Add("One-off", evStart.AddDate(0, 0, 3), evEnd.AddDate(0, 0, 3), "family", "")

	occs := s.Expanded(evStart, evStart.AddDate(0, 0, 14))
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3 (two piano + one-off)", len(occs))
	}
	if occs[0].Event.Title != "Piano" || occs[1].Event.Title != "One-off" || occs[2].Event.Title != "Piano" {
		t.Errorf("order = %s, %s, %s", occs[0].Event.Title, occs[1].Event.Title, occs[2].Event.Title)
	}
}
