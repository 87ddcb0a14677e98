package store

import "testing"

func TestInfinityLogInsertionOrder(t *testing.T) {
	s := NewInfinityLogStore(testDoc(), nil)
	s.Add("gift idea: telescope", []string{"gifts", "ideas"})
	s.Add("wifi password is in the drawer", []string{"household"})
	s.Add("trip packing list", []string{"ideas"})

	items := s.Snapshot()
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[0].Content != "gift idea: telescope" || items[2].Content != "trip packing list" {
		t.Errorf("order broken: %v", items)
	}
}

func TestInfinityLogByTag(t *testing.T) {
	s := NewInfinityLogStore(testDoc(), nil)
	s.Add("gift idea: telescope", []string{"gifts", "ideas"})
	s.Add("wifi password", []string{"household"})
	s.Add("trip packing list", []string{"ideas"})

	got := s.ByTag("ideas")
	if len(got) != 2 {
		t.Fatalf("got %d items tagged ideas, want 2", len(got))
	}
}

func TestInfinityLogRemove(t *testing.T) {
	s := NewInfinityLogStore(testDoc(), nil)
	item := s.Add("obsolete", nil)
	keep := s.Add("keeper", nil)
	s.Remove(item.ID)

	items := s.Snapshot()
	if len(items) != 1 || items[0].ID != keep.ID {
		t.Errorf("snapshot = %+v", items)
	}
}
