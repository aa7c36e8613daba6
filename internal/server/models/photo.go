package models

import "time"

// Photo is a photo record. The binary lives in object storage under
// StorageKey; clients upload and download it through presigned URLs.
type Photo struct {
	ID          string    `json:"id"`
	AlbumID     string    `json:"albumId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}
