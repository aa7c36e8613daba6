package models

import "time"

// Album groups photos under an owner. When IsPublic is set, ShareToken holds
// the opaque token that resolves the album on the public route.
type Album struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsPublic    bool      `json:"isPublic"`
	ShareToken  *string   `json:"shareToken,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
