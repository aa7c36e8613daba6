package models

import "time"

// ResetToken is a single-use, time-boxed password-reset token. A row whose
// UsedAt is set or whose ExpiresAt is in the past is never accepted again.
type ResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
}
