package model

import "time"

type WellnessEntry struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Tags      []string  `json:"tags"`
}
