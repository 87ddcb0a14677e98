package store

import (
	"testing"
	"time"
)

func TestWellnessLogAppends(t *testing.T) {
	s := NewWellnessStore(testDoc(), nil)
	s.Log("sleep", 7.5, []string{"restless"})
	s.Log("water", 6, nil)

	entries := s.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Type != "sleep" || entries[1].Type != "water" {
		t.Errorf("order = %s, %s", entries[0].Type, entries[1].Type)
	}
}

func TestWellnessByTypeNewestFirst(t *testing.T) {
	s := NewWellnessStore(testDoc(), nil)
	base := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)

	for day := 0; day < 3; day++ {
		d := day
		s.now = func() time.Time { return base.AddDate(0, 0, d) }
		s.Log("sleep", float64(6 + day), nil)
		s.Log("water", 8, nil)
	}

	sleeps := s.ByType("sleep")
	if len(sleeps) != 3 {
		t.Fatalf("got %d sleep entries, want 3", len(sleeps))
	}
	for i := 1; i < len(sleeps); i++ {
		if sleeps[i].Timestamp.After(sleeps[i-1].Timestamp) {
			t.Errorf("entries not newest-first at %d", i)
		}
	}
	if sleeps[0].Value != 8 {
		t.Errorf("newest sleep value = %v, want 8", sleeps[0].Value)
	}
}
