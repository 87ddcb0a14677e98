package store

import (
	"log/slog"
	"time"

	"github.com/dukerupert/hearth/internal/crdt"
	"github.com/dukerupert/hearth/internal/model"
)

// CompletionStore reads the append-only chore completion log. Events are
// written by ChoreStore.Rotate; this store only aggregates them, so the
// leaderboard is reconstructable history rather than a mutable counter.
type CompletionStore struct {
	doc    *crdt.Doc
	logger *slog.Logger
}

func NewCompletionStore(doc *crdt.Doc, logger *slog.Logger) *CompletionStore {
	return &CompletionStore{doc: doc, logger: orDefault(logger)}
}

// Snapshot returns all completion events in insertion order.
func (s *CompletionStore) Snapshot() []model.CompletionEvent {
	return decodeRecords[model.CompletionEvent](s.doc.List(completionsCollection), s.logger, completionsCollection)
}

// Subscribe registers fn to run after any completion is logged.
func (s *CompletionStore) Subscribe(fn func()) func() {
	return s.doc.Subscribe(completionsCollection, fn)
}

// Leaderboard aggregates points per member from completions at or after
// since, ranked descending. A zero since ranks all of history.
func (s *CompletionStore) Leaderboard(since time.Time) []LeaderboardEntry {
	points := make(map[string]int)
	for _, ev := range s.Snapshot() {
		if ev.MemberID == "" || ev.CompletedAt.Before(since) {
			continue
		}
		points[ev.MemberID] += ev.Points
	}
	return rankEntries(points)
}
