// Package resettokens declares the persistence contract for single-use,
// time-boxed password-reset tokens.
package resettokens

import (
	"context"
	"time"

	"github.com/photovault/photovault/internal/server/models"
)

type Repository interface {
	// Create stores a new reset token for userID expiring at expiresAt.
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error

	// FindActive looks a token up by its exact value, restricted to tokens
	// that are unused and unexpired. Unknown, expired, and already-used
	// tokens are indistinguishable: all return common.ErrorNotFound.
	FindActive(ctx context.Context, token string) (*models.ResetToken, error)

	// MarkUsed consumes the token by setting its used_at timestamp.
	MarkUsed(ctx context.Context, id string) error

	// PurgeExpired deletes tokens that are expired or already used and
	// returns the number of rows removed.
	PurgeExpired(ctx context.Context) (int64, error)
}
