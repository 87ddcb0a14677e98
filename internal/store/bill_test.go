package store

import (
	"testing"
	"time"
)

func TestBillAddAndTogglePaid(t *testing.T) {
	s := NewBillStore(testDoc(), nil)

	b := s.Add("Electric", 120.50, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), "utilities")
	got := s.Snapshot()
	if len(got) != 1 || got[0].IsPaid {
		t.Fatalf("snapshot = %+v", got)
	}

	s.TogglePaid(b.ID)
	if !s.Snapshot()[0].IsPaid {
		t.Error("bill not marked paid")
	}
	s.TogglePaid(b.ID)
	if s.Snapshot()[0].IsPaid {
		t.Error("bill not toggled back")
	}
}

func TestBillNegativeAmountStoredAsZero(t *testing.T) {
	s := NewBillStore(testDoc(), nil)
	s.Add("Refund?", -40, time.Now(), "misc")
	if got := s.Snapshot()[0].Amount; got != 0 {
		t.Errorf("amount = %v, want 0", got)
	}
}

func TestBillUpcomingFiltersAndSorts(t *testing.T) {
	s := NewBillStore(testDoc(), nil)
	now := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	later := s.Add("Rent", 1800, now.AddDate(0, 0, 5), "housing")
	sooner := s.Add("Water", 60, now.AddDate(0, 0, 2), "utilities")
	farOut := s.Add("Insurance", 300, now.AddDate(0, 0, 40), "insurance")
	paid := s.Add("Internet", 80, now.AddDate(0, 0, 3), "utilities")
	s.TogglePaid(paid.ID)

	up := s.Upcoming(7)
	if len(up) != 2 {
		t.Fatalf("upcoming has %d bills, want 2", len(up))
	}
	if up[0].ID != sooner.ID || up[1].ID != later.ID {
		t.Errorf("upcoming order = %s, %s", up[0].Name, up[1].Name)
	}
	for _, b := range up {
		if b.ID == farOut.ID || b.ID == paid.ID {
			t.Errorf("unexpected bill in upcoming: %s", b.Name)
		}
	}
}

func TestBillMonthlyTotal(t *testing.T) {
	s := NewBillStore(testDoc(), nil)

	a := s.Add("Electric", 100, time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC), "utilities")
	b := s.Add("Water", 50, time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC), "utilities")
	s.Add("Rent", 1800, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), "housing") // unpaid
	other := s.Add("Gas", 70, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), "utilities")

	s.TogglePaid(a.ID)
	s.TogglePaid(b.ID)
	s.TogglePaid(other.ID)

	if got := s.MonthlyTotal(2026, time.September); got != 150 {
		t.Errorf("monthly total = %v, want 150", got)
	}
}

func TestBillRemove(t *testing.T) {
	s := NewBillStore(testDoc(), nil)
	b := s.Add("Electric", 100, time.Now(), "utilities")
	s.Remove(b.ID)
	if n := len(s.Snapshot()); n != 0 {
		t.Errorf("snapshot has %d bills, want 0", n)
	}
	s.Remove(b.ID) // second delete is a silent no-op
}
