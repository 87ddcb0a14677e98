package model

import "time"

type ShoppingItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsChecked bool      `json:"is_checked"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}
