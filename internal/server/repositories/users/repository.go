// Package users declares the account persistence contract. Only the fields
// the session protocol reads and writes are modelled: credentials and the
// single stored refresh token.
package users

import (
	"context"

	"github.com/photovault/photovault/internal/server/models"
)

type Repository interface {
	// Create inserts a new account. Returns common.ErrorAlreadyExists when
	// the email is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail looks an account up by its normalized email.
	// Returns common.ErrorNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID looks an account up by id. Returns common.ErrorNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdateRefreshToken overwrites the stored refresh token. A nil token
	// clears it (logout / reset).
	UpdateRefreshToken(ctx context.Context, id string, token *string) error

	// UpdatePasswordHash replaces the account's password hash.
	UpdatePasswordHash(ctx context.Context, id string, hash string) error
}
