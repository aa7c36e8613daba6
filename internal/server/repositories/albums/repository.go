// Package albums declares the album persistence contract.
package albums

import (
	"context"

	"github.com/photovault/photovault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, album *models.Album) (*models.Album, error)

	// GetByID returns the album regardless of owner; ownership checks live
	// in the service layer. Returns common.ErrorNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.Album, error)

	ListByUser(ctx context.Context, userID string) ([]*models.Album, error)

	// Update persists the album's title and description.
	Update(ctx context.Context, album *models.Album) error

	Delete(ctx context.Context, id string) error

	// SetSharing toggles public sharing. A nil shareToken clears it.
	SetSharing(ctx context.Context, id string, isPublic bool, shareToken *string) error

	// GetByShareToken resolves a publicly shared album by its share token.
	// Returns common.ErrorNotFound for unknown tokens or unshared albums.
	GetByShareToken(ctx context.Context, shareToken string) (*models.Album, error)
}
