package model

import "time"

type Chore struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Assignees        []string   `json:"assignees"`
	CurrentTurnIndex int        `json:"current_turn_index"`
	Frequency        string     `json:"frequency"`
	Points           int        `json:"points"`
	LastCompleted    *time.Time `json:"last_completed"`
	CreatedAt        time.Time  `json:"created_at"`
}

// CurrentAssignee returns the member whose turn it is, or "" when the chore
// has no assignees.
func (c Chore) CurrentAssignee() string {
	if len(c.Assignees) == 0 {
		return ""
	}
	if c.CurrentTurnIndex < 0 || c.CurrentTurnIndex >= len(c.Assignees) {
		return c.Assignees[0]
	}
	return c.Assignees[c.CurrentTurnIndex]
}
