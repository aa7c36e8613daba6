package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

func (a *App) CreateAlbum(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Enter album title", os.Stdout)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "Enter description (optional)", os.Stdout)
	if err != nil {
		return err
	}

	album, err := a.client.CreateAlbum(ctx, title, description)
	if err != nil {
		return err
	}
	fmt.Printf("Created album %s (%s)\n", album.Title, album.ID)
	return nil
}

func (a *App) ListAlbums(ctx context.Context) error {
	albums, err := a.client.ListAlbums(ctx)
	if err != nil {
		return err
	}
	if len(albums) == 0 {
		fmt.Println("No albums yet.")
		return nil
	}
	for _, album := range albums {
		visibility := "private"
		if album.IsPublic {
			visibility = "public"
		}
		fmt.Printf("%s  %-20s  %s\n", album.ID, album.Title, visibility)
	}
	return nil
}

func (a *App) RenameAlbum(ctx context.Context, albumID, title string) error {
	album, err := a.client.RenameAlbum(ctx, albumID, title)
	if err != nil {
		return err
	}
	fmt.Printf("Renamed album %s to %s\n", album.ID, album.Title)
	return nil
}

func (a *App) DeleteAlbum(ctx context.Context, albumID string) error {
	if err := a.client.DeleteAlbum(ctx, albumID); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

// ShareAlbum toggles public sharing and prints the share link when enabled.
func (a *App) ShareAlbum(ctx context.Context, albumID string, isPublic bool) error {
	album, err := a.client.ShareAlbum(ctx, albumID, isPublic)
	if err != nil {
		return err
	}
	if album.IsPublic && album.ShareToken != nil {
		fmt.Printf("Album is public: %s/api/v1/public/albums/%s\n",
			strings.TrimRight(a.config.ServerBaseURL, "/"), *album.ShareToken)
	} else {
		fmt.Println("Album is private.")
	}
	return nil
}

func (a *App) ListPhotos(ctx context.Context, albumID string) error {
	photos, err := a.client.ListPhotos(ctx, albumID)
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		fmt.Println("No photos yet.")
		return nil
	}
	for _, p := range photos {
		fmt.Printf("%s  %-30s  %s\n", p.ID, p.FileName, p.URL)
	}
	return nil
}

// UploadPhoto requests a presigned URL for the file and PUTs the bytes to it.
func (a *App) UploadPhoto(ctx context.Context, albumID, path string) error {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	photo, uploadURL, err := a.client.RequestUploadURL(ctx, albumID, filepath.Base(path), contentType)
	if err != nil {
		return err
	}
	if err := a.client.UploadFile(ctx, uploadURL, contentType, f); err != nil {
		return err
	}

	fmt.Printf("Uploaded %s (%s)\n", photo.FileName, photo.ID)
	return nil
}

func (a *App) DeletePhoto(ctx context.Context, photoID string) error {
	if err := a.client.DeletePhoto(ctx, photoID); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}
