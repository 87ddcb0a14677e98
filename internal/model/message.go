package model

import "time"

type Message struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Text        string    `json:"text"`
	ImageBase64 string    `json:"image_base64,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the message should be purged.
func (m Message) Expired(now time.Time) bool {
	return m.ExpiresAt.Before(now)
}
