// Package models defines the server-side persistence models.
package models

import "time"

// User is an account record. PasswordHash is nil for accounts created via an
// external identity provider. RefreshToken holds the single refresh token
// currently considered valid for the account: it is overwritten on every
// login/register/refresh and cleared on logout, so at most one session can
// refresh at a time.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash *string
	RefreshToken *string
	CreatedAt    time.Time
}

// PublicProfile is the externally visible projection of a User.
type PublicProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public returns the user's public profile.
func (u *User) Public() *PublicProfile {
	return &PublicProfile{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}
