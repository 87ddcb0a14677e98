package model

import "time"

// CompletionEvent is one append-only record of a chore being completed.
// The completion log, not the mutable chore records, is the source of truth
// for leaderboards and history.
type CompletionEvent struct {
	ID          string    `json:"id"`
	ChoreID     string    `json:"chore_id"`
	MemberID    string    `json:"member_id"`
	Points      int       `json:"points"`
	CompletedAt time.Time `json:"completed_at"`
}
