package model

import "time"

type Bill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	DueDate   time.Time `json:"due_date"`
	IsPaid    bool      `json:"is_paid"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}
