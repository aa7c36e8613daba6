package albums

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/photovault/photovault/internal/common"
	"github.com/photovault/photovault/internal/dbx"
	"github.com/photovault/photovault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const albumColumns = `id, user_id, title, description, is_public, share_token, created_at`

func (r *PostgresRepository) Create(ctx context.Context, album *models.Album) (*models.Album, error) {
	query := `
		INSERT INTO albums (user_id, title, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		album.UserID, album.Title, album.Description).Scan(&album.ID, &album.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return album, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE id = $1`
	return r.scanAlbum(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByShareToken(ctx context.Context, shareToken string) (*models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE share_token = $1 AND is_public`
	return r.scanAlbum(r.db.QueryRowContext(ctx, query, shareToken))
}

func (r *PostgresRepository) scanAlbum(row *sql.Row) (*models.Album, error) {
	a := &models.Album{}
	err := row.Scan(&a.ID, &a.UserID, &a.Title, &a.Description, &a.IsPublic, &a.ShareToken, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Album, error) {
	query := `SELECT ` + albumColumns + ` FROM albums WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Album
	for rows.Next() {
		a := &models.Album{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.Description, &a.IsPublic, &a.ShareToken, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, album *models.Album) error {
	query := `
		UPDATE albums SET title = $2, description = $3
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, album.ID, album.Title, album.Description); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM albums WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetSharing(ctx context.Context, id string, isPublic bool, shareToken *string) error {
	query := `
		UPDATE albums SET is_public = $2, share_token = $3
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, isPublic, shareToken); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
