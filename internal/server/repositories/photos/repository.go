// Package photos declares the photo persistence contract.
package photos

import (
	"context"

	"github.com/photovault/photovault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, photo *models.Photo) (*models.Photo, error)

	// GetByID returns common.ErrorNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.Photo, error)

	ListByAlbum(ctx context.Context, albumID string) ([]*models.Photo, error)

	CountByAlbum(ctx context.Context, albumID string) (int, error)

	Delete(ctx context.Context, id string) error
}
