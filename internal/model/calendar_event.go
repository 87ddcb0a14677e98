package model

import "time"

type CalendarEvent struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	IsLocked   bool      `json:"is_locked"`
	Type       string    `json:"type"`
	Recurrence string    `json:"recurrence,omitempty"` // RRULE string, empty for one-off events
	CreatedAt  time.Time `json:"created_at"`
}
