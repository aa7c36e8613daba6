// This file implements PhotoService: photo records plus presigned
// object-storage URLs. The server never proxies image bytes; clients upload
// and download directly against S3 with time-limited signed URLs.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/photovault/photovault/internal/common"
	"github.com/photovault/photovault/internal/logging"
	sc "github.com/photovault/photovault/internal/server/config"
	"github.com/photovault/photovault/internal/server/models"
	"github.com/photovault/photovault/internal/server/repositories/repomanager"
)

// presignedURLValidity bounds every issued upload/download URL.
const presignedURLValidity = time.Hour

// Seams for testing the AWS SDK calls.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	deleteS3Object = func(c *s3.Client, ctx context.Context, in *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error) {
		return c.DeleteObject(ctx, in)
	}
)

// PhotoWithURL pairs a photo record with a presigned download URL.
type PhotoWithURL struct {
	*models.Photo
	URL string `json:"url"`
}

type PhotoService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	config *sc.Config
	logger logging.Logger
}

func NewPhotoService(db *sql.DB, repos repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *PhotoService {
	return &PhotoService{db: db, repos: repos, config: config, logger: logger}
}

func makeStorageKey(albumID string) string {
	return fmt.Sprintf("albums/%s/%s", albumID, uuid.NewString())
}

func (s *PhotoService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *PhotoService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	client, err := s.getS3Client(ctx)
	if err != nil {
		return nil, err
	}
	return newS3PresignClient(client), nil
}

// requireOwnedAlbum loads an album and verifies ownership. Albums owned by
// someone else are reported as not found rather than forbidden, so album ids
// cannot be probed.
func (s *PhotoService) requireOwnedAlbum(ctx context.Context, userID, albumID string) (*models.Album, error) {
	album, err := s.repos.Albums(s.db).GetByID(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if album.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return album, nil
}

// RequestUpload registers a photo in the album and returns it together with
// a presigned PUT URL bound to the declared content type.
func (s *PhotoService) RequestUpload(ctx context.Context, userID, albumID, fileName, contentType string) (*models.Photo, string, error) {
	if _, err := s.requireOwnedAlbum(ctx, userID, albumID); err != nil {
		return nil, "", err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("creating presign client: %w", err)
	}

	key := makeStorageKey(albumID)
	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &s.config.S3Bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(presignedURLValidity))
	if err != nil {
		return nil, "", fmt.Errorf("presigning upload: %w", err)
	}

	photo, err := s.repos.Photos(s.db).Create(ctx, &models.Photo{
		AlbumID:     albumID,
		FileName:    fileName,
		ContentType: contentType,
		StorageKey:  key,
	})
	if err != nil {
		return nil, "", fmt.Errorf("storing photo: %w", err)
	}

	return photo, req.URL, nil
}

// ListForOwner lists an owned album's photos with presigned download URLs.
func (s *PhotoService) ListForOwner(ctx context.Context, userID, albumID string) ([]*PhotoWithURL, error) {
	if _, err := s.requireOwnedAlbum(ctx, userID, albumID); err != nil {
		return nil, err
	}
	return s.ListAlbum(ctx, albumID)
}

// ListAlbum lists an album's photos with presigned download URLs. It does
// not check ownership; callers on the public share route resolve the album
// through its share token first.
func (s *PhotoService) ListAlbum(ctx context.Context, albumID string) ([]*PhotoWithURL, error) {
	records, err := s.repos.Photos(s.db).ListByAlbum(ctx, albumID)
	if err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating presign client: %w", err)
	}

	result := make([]*PhotoWithURL, 0, len(records))
	for _, p := range records {
		req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
			Bucket: &s.config.S3Bucket,
			Key:    &p.StorageKey,
		}, s3.WithPresignExpires(presignedURLValidity))
		if err != nil {
			return nil, fmt.Errorf("presigning download: %w", err)
		}
		result = append(result, &PhotoWithURL{Photo: p, URL: req.URL})
	}
	return result, nil
}

// Delete removes a photo record and best-effort deletes the stored object.
func (s *PhotoService) Delete(ctx context.Context, userID, photoID string) error {
	photo, err := s.repos.Photos(s.db).GetByID(ctx, photoID)
	if err != nil {
		return err
	}
	if _, err := s.requireOwnedAlbum(ctx, userID, photo.AlbumID); err != nil {
		return err
	}

	if err := s.repos.Photos(s.db).Delete(ctx, photoID); err != nil {
		return fmt.Errorf("deleting photo: %w", err)
	}

	client, err := s.getS3Client(ctx)
	if err == nil {
		_, err = deleteS3Object(client, ctx, &s3.DeleteObjectInput{
			Bucket: &s.config.S3Bucket,
			Key:    &photo.StorageKey,
		})
	}
	if err != nil {
		// the DB row is gone; an orphaned object is acceptable
		s.logger.Warn(ctx, "deleting stored object failed", "photo_id", photoID, "error", err.Error())
	}
	return nil
}
