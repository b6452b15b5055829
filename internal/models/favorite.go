package models

import "time"

// Favorite marks a product for a user. The (UserID, ProductID) pair is unique.
type Favorite struct {
	UserID    string    `json:"user_id"`
	ProductID int64     `json:"product_id"`
	CreatedAt time.Time `json:"created_at"`
}
