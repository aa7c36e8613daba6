// This file implements AlbumService: album CRUD and public sharing via an
// opaque share token.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/photovault/photovault/internal/common"
	"github.com/photovault/photovault/internal/logging"
	"github.com/photovault/photovault/internal/server/models"
	"github.com/photovault/photovault/internal/server/repositories/repomanager"
)

// shareTokenBytes is the entropy of a share token; it encodes to 32 hex
// characters.
const shareTokenBytes = 16

type AlbumService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewAlbumService(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger) *AlbumService {
	return &AlbumService{db: db, repos: repos, logger: logger}
}

func (s *AlbumService) Create(ctx context.Context, userID, title, description string) (*models.Album, error) {
	album, err := s.repos.Albums(s.db).Create(ctx, &models.Album{
		UserID:      userID,
		Title:       title,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("creating album: %w", err)
	}
	return album, nil
}

func (s *AlbumService) List(ctx context.Context, userID string) ([]*models.Album, error) {
	albums, err := s.repos.Albums(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	return albums, nil
}

// Get returns an owned album. Someone else's album is reported as not found.
func (s *AlbumService) Get(ctx context.Context, userID, albumID string) (*models.Album, error) {
	album, err := s.repos.Albums(s.db).GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if album.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return album, nil
}

// Update edits the album's title and description. A nil field keeps the
// current value.
func (s *AlbumService) Update(ctx context.Context, userID, albumID string, title, description *string) (*models.Album, error) {
	album, err := s.Get(ctx, userID, albumID)
	if err != nil {
		return nil, err
	}

	if title != nil {
		album.Title = *title
	}
	if description != nil {
		album.Description = *description
	}

	if err := s.repos.Albums(s.db).Update(ctx, album); err != nil {
		return nil, fmt.Errorf("updating album: %w", err)
	}
	return album, nil
}

// Delete removes an owned album. An album that still contains photos is
// refused; the photos have to be deleted first so their storage objects are
// cleaned up too.
func (s *AlbumService) Delete(ctx context.Context, userID, albumID string) error {
	if _, err := s.Get(ctx, userID, albumID); err != nil {
		return err
	}

	n, err := s.repos.Photos(s.db).CountByAlbum(ctx, albumID)
	if err != nil {
		return fmt.Errorf("counting photos: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: album still contains photos", common.ErrorValidation)
	}

	if err := s.repos.Albums(s.db).Delete(ctx, albumID); err != nil {
		return fmt.Errorf("deleting album: %w", err)
	}
	s.logger.Info(ctx, "album deleted", "album_id", albumID)
	return nil
}

// ToggleShare flips public sharing. Enabling keeps an existing share token
// stable so previously handed-out links stay valid; disabling clears it.
func (s *AlbumService) ToggleShare(ctx context.Context, userID, albumID string, isPublic bool) (*models.Album, error) {
	album, err := s.Get(ctx, userID, albumID)
	if err != nil {
		return nil, err
	}

	var shareToken *string
	if isPublic {
		if album.ShareToken != nil {
			shareToken = album.ShareToken
		} else {
			token, err := common.MakeRandHexString(shareTokenBytes)
			if err != nil {
				return nil, fmt.Errorf("generating share token: %w", err)
			}
			shareToken = &token
		}
	}

	if err := s.repos.Albums(s.db).SetSharing(ctx, albumID, isPublic, shareToken); err != nil {
		return nil, fmt.Errorf("updating sharing: %w", err)
	}

	album.IsPublic = isPublic
	album.ShareToken = shareToken
	s.logger.Info(ctx, "album sharing toggled", "album_id", albumID, "public", isPublic)
	return album, nil
}

// GetShared resolves a publicly shared album by its share token.
func (s *AlbumService) GetShared(ctx context.Context, shareToken string) (*models.Album, error) {
	return s.repos.Albums(s.db).GetByShareToken(ctx, shareToken)
}
