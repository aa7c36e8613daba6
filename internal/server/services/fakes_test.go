package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/photovault/photovault/internal/common"
	"github.com/photovault/photovault/internal/dbx"
	"github.com/photovault/photovault/internal/logging"
	"github.com/photovault/photovault/internal/server/models"
	albumsrepo "github.com/photovault/photovault/internal/server/repositories/albums"
	photosrepo "github.com/photovault/photovault/internal/server/repositories/photos"
	resettokensrepo "github.com/photovault/photovault/internal/server/repositories/resettokens"
	usersrepo "github.com/photovault/photovault/internal/server/repositories/users"
)

// --- in-memory fakes; stateful so multi-step scenarios behave like a DB ---

type memUsers struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*models.User // by id
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*models.User{}}
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.PasswordHash != nil {
		h := *u.PasswordHash
		c.PasswordHash = &h
	}
	if u.RefreshToken != nil {
		t := *u.RefreshToken
		c.RefreshToken = &t
	}
	return &c
}

func (m *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("u%d", m.nextID)
	user.CreatedAt = time.Now()
	m.users[user.ID] = copyUser(user)
	return copyUser(user), nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if token == nil {
		u.RefreshToken = nil
	} else {
		t := *token
		u.RefreshToken = &t
	}
	return nil
}

func (m *memUsers) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = &hash
	return nil
}

type memResetTokens struct {
	mu     sync.Mutex
	nextID int
	tokens map[string]*models.ResetToken // by id
	now    func() time.Time
}

func newMemResetTokens() *memResetTokens {
	return &memResetTokens{tokens: map[string]*models.ResetToken{}, now: time.Now}
}

func (m *memResetTokens) Create(ctx context.Context, userID, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("rt%d", m.nextID)
	m.tokens[id] = &models.ResetToken{ID: id, UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (m *memResetTokens) FindActive(ctx context.Context, token string) (*models.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.tokens {
		if rt.Token == token && rt.UsedAt == nil && rt.ExpiresAt.After(m.now()) {
			c := *rt
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memResetTokens) MarkUsed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rt, ok := m.tokens[id]; ok {
		now := m.now()
		rt.UsedAt = &now
	}
	return nil
}

func (m *memResetTokens) PurgeExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, rt := range m.tokens {
		if rt.UsedAt != nil || rt.ExpiresAt.Before(m.now()) {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}

// latestToken returns the most recently created token value, for tests that
// need to pluck the token out of the "email".
func (m *memResetTokens) latestToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("rt%d", m.nextID)
	if rt, ok := m.tokens[id]; ok {
		return rt.Token
	}
	return ""
}

type memAlbums struct {
	mu     sync.Mutex
	nextID int
	albums map[string]*models.Album
}

func newMemAlbums() *memAlbums {
	return &memAlbums{albums: map[string]*models.Album{}}
}

func copyAlbum(a *models.Album) *models.Album {
	c := *a
	if a.ShareToken != nil {
		t := *a.ShareToken
		c.ShareToken = &t
	}
	return &c
}

func (m *memAlbums) Create(ctx context.Context, album *models.Album) (*models.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	album.ID = fmt.Sprintf("a%d", m.nextID)
	album.CreatedAt = time.Now()
	m.albums[album.ID] = copyAlbum(album)
	return copyAlbum(album), nil
}

func (m *memAlbums) GetByID(ctx context.Context, id string) (*models.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.albums[id]; ok {
		return copyAlbum(a), nil
	}
	return nil, common.ErrorNotFound
}

func (m *memAlbums) ListByUser(ctx context.Context, userID string) ([]*models.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Album
	for _, a := range m.albums {
		if a.UserID == userID {
			result = append(result, copyAlbum(a))
		}
	}
	return result, nil
}

func (m *memAlbums) Update(ctx context.Context, album *models.Album) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.albums[album.ID]
	if !ok {
		return common.ErrorNotFound
	}
	a.Title = album.Title
	a.Description = album.Description
	return nil
}

func (m *memAlbums) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.albums, id)
	return nil
}

func (m *memAlbums) SetSharing(ctx context.Context, id string, isPublic bool, shareToken *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.albums[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.IsPublic = isPublic
	if shareToken == nil {
		a.ShareToken = nil
	} else {
		t := *shareToken
		a.ShareToken = &t
	}
	return nil
}

func (m *memAlbums) GetByShareToken(ctx context.Context, shareToken string) (*models.Album, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.albums {
		if a.IsPublic && a.ShareToken != nil && *a.ShareToken == shareToken {
			return copyAlbum(a), nil
		}
	}
	return nil, common.ErrorNotFound
}

type memPhotos struct {
	mu     sync.Mutex
	nextID int
	photos map[string]*models.Photo
}

func newMemPhotos() *memPhotos {
	return &memPhotos{photos: map[string]*models.Photo{}}
}

func (m *memPhotos) Create(ctx context.Context, photo *models.Photo) (*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	photo.ID = fmt.Sprintf("p%d", m.nextID)
	photo.CreatedAt = time.Now()
	c := *photo
	m.photos[photo.ID] = &c
	return photo, nil
}

func (m *memPhotos) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.photos[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memPhotos) ListByAlbum(ctx context.Context, albumID string) ([]*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.Photo
	for _, p := range m.photos {
		if p.AlbumID == albumID {
			c := *p
			result = append(result, &c)
		}
	}
	return result, nil
}

func (m *memPhotos) CountByAlbum(ctx context.Context, albumID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.photos {
		if p.AlbumID == albumID {
			n++
		}
	}
	return n, nil
}

func (m *memPhotos) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.photos, id)
	return nil
}

// fakeRepoManager hands out the same in-memory repositories regardless of
// the DBTX it is given.
type fakeRepoManager struct {
	u  *memUsers
	rt *memResetTokens
	a  *memAlbums
	p  *memPhotos
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		u:  newMemUsers(),
		rt: newMemResetTokens(),
		a:  newMemAlbums(),
		p:  newMemPhotos(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository             { return m.u }
func (m *fakeRepoManager) ResetTokens(db dbx.DBTX) resettokensrepo.Repository { return m.rt }
func (m *fakeRepoManager) Albums(db dbx.DBTX) albumsrepo.Repository           { return m.a }
func (m *fakeRepoManager) Photos(db dbx.DBTX) photosrepo.Repository           { return m.p }

// fakeMailer records dispatched reset emails.
type fakeMailer struct {
	mu    sync.Mutex
	sends []struct{ To, Token string }
	err   error
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, toEmail, name, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, struct{ To, Token string }{toEmail, token})
	return f.err
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
