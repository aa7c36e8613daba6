package photos

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

func (r *PostgresRepository) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	query := `
		INSERT INTO photos (album_id, file_name, content_type, storage_key)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		photo.AlbumID, photo.FileName, photo.ContentType, photo.StorageKey).
		Scan(&photo.ID, &photo.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return photo, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `
		SELECT id, album_id, file_name, content_type, storage_key, created_at
		FROM photos
		WHERE id = $1
	`
	p := &models.Photo{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.AlbumID, &p.FileName, &p.ContentType, &p.StorageKey, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByAlbum(ctx context.Context, albumID string) ([]*models.Photo, error) {
	query := `
		SELECT id, album_id, file_name, content_type, storage_key, created_at
		FROM photos
		WHERE album_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Photo
	for rows.Next() {
		p := &models.Photo{}
		if err := rows.Scan(&p.ID, &p.AlbumID, &p.FileName, &p.ContentType, &p.StorageKey, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) CountByAlbum(ctx context.Context, albumID string) (int, error) {
	query := `SELECT count(*) FROM photos WHERE album_id = $1`
	var n int
	if err := r.db.QueryRowContext(ctx, query, albumID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM photos WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
