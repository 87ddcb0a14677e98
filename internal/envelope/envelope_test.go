package envelope

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAvailable(t *testing.T) {
	if got := Available(500, 120); got != 380 {
		t.Errorf("Available(500,120) = %v, want 380", got)
	}
	if got := SafeToSpend(500, 120); got != 380 {
		t.Errorf("SafeToSpend(500,120) = %v, want 380", got)
	}
	// Overspending goes negative rather than clamping.
	if got := Available(100, 150); got != -50 {
		t.Errorf("Available(100,150) = %v, want -50", got)
	}
}

func TestRollover(t *testing.T) {
	if got := Rollover(40, 500); got != 540 {
		t.Errorf("Rollover(40,500) = %v, want 540", got)
	}
	// An overspent period eats into the next allocation.
	if got := Rollover(-75, 500); got != 425 {
		t.Errorf("Rollover(-75,500) = %v, want 425", got)
	}
}

func TestVisible(t *testing.T) {
	pub := Envelope{Visibility: VisibilityPublic}
	priv := Envelope{Visibility: VisibilityPrivate}
	hidden := Envelope{Visibility: VisibilityHidden}

	if !Visible(pub, false) {
		t.Error("public envelope should render without reveal")
	}
	if Visible(priv, false) || Visible(hidden, false) {
		t.Error("non-public envelopes must require a reveal")
	}
	if !Visible(priv, true) || !Visible(hidden, true) {
		t.Error("revealed envelopes should render")
	}
}

func TestClientFetchesEnvelopes(t *testing.T) {
	want := []Envelope{
		{ID: "groceries", Name: "Groceries", BudgetLimit: 600, CurrentBalance: 212.5, Visibility: VisibilityPublic},
		{ID: "gifts", Name: "Gifts", BudgetLimit: 100, CurrentBalance: -12, Visibility: VisibilityPrivate},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/households/smith/envelopes" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := NewClient(srv.URL).Envelopes(context.Background(), "smith")
	if err != nil {
		t.Fatalf("envelopes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d envelopes, want 2", len(got))
	}
	if got[1].CurrentBalance != -12 || got[1].Visibility != VisibilityPrivate {
		t.Errorf("envelope = %+v", got[1])
	}
}

func TestClientSurfacesBackendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Envelopes(context.Background(), "smith"); err == nil {
		t.Error("expected error for 500 response")
	}
}
