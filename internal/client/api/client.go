// Package api is the HTTP client for the photovault backend. It attaches
// the access token to every request and transparently refreshes the pair
// when the server answers 401, collapsing concurrent refresh attempts into
// a single request.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Profile mirrors the server's public account projection.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Album mirrors the server's album record.
type Album struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsPublic    bool      `json:"isPublic"`
	ShareToken  *string   `json:"shareToken,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Photo mirrors the server's photo record, optionally carrying a presigned
// download URL.
type Photo struct {
	ID          string    `json:"id"`
	AlbumID     string    `json:"albumId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
	URL         string    `json:"url,omitempty"`
}

// SharedAlbum is the public share-link view: the album plus its photos.
type SharedAlbum struct {
	Album  *Album   `json:"album"`
	Photos []*Photo `json:"photos"`
}

type sessionResponse struct {
	User *Profile `json:"user"`
	TokenPair
}

type refreshResult struct {
	access string
	err    error
}

// Client talks to the backend API. Safe for concurrent use.
//
// On a 401 for an authenticated call the client refreshes the token pair and
// replays the call once with the new access token. Concurrent 401s share one
// refresh: the first caller performs it, the rest park on a channel and
// reuse its outcome. When the refresh itself is rejected the session is torn
// down: the stored pair is cleared and the OnSessionExpired hook runs.
type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore

	// OnSessionExpired, when set, is invoked once per torn-down session,
	// after the stored pair has been cleared.
	OnSessionExpired func()

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

func NewClient(baseURL string, store TokenStore, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		store:   store,
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/api/v1" + path
}

// doOnce performs a single HTTP exchange and decodes the response. The
// status code is returned alongside the error so the caller can tell a 401
// apart from transport failures.
func (c *Client) doOnce(ctx context.Context, method, path, bearer string, body, out any) (int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reqBody)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if resp.StatusCode == http.StatusUnauthorized {
			return resp.StatusCode, ErrUnauthorized
		}
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// do performs an authenticated exchange with the retry-once policy: a 401
// triggers one refresh and one replay, a second 401 is terminal.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	pair, err := c.store.Load()
	if err != nil {
		return err
	}
	if pair == nil {
		return ErrNoSession
	}

	status, err := c.doOnce(ctx, method, path, pair.AccessToken, body, out)
	if status != http.StatusUnauthorized {
		return err
	}

	access, err := c.refreshAccess(ctx, pair.AccessToken)
	if err != nil {
		return err
	}

	_, err = c.doOnce(ctx, method, path, access, body, out)
	return err
}

// refreshAccess obtains a fresh access token, collapsing concurrent callers
// into a single refresh request. All callers receive the same outcome.
// stale is the access token that was just rejected: when the store already
// holds a different one, a refresh has completed in the meantime and its
// result is reused instead of refreshing again.
func (c *Client) refreshAccess(ctx context.Context, stale string) (string, error) {
	if pair, err := c.store.Load(); err == nil && pair != nil && pair.AccessToken != stale {
		return pair.AccessToken, nil
	}

	c.mu.Lock()
	if c.refreshing {
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		select {
		case res := <-ch:
			return res.access, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	access, err := c.refreshOnce(ctx)

	c.mu.Lock()
	c.refreshing = false
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshResult{access: access, err: err}
	}
	return access, err
}

// refreshOnce exchanges the stored refresh token for a new pair. Any
// rejection tears the session down; the caller cannot recover without
// logging in again.
func (c *Client) refreshOnce(ctx context.Context) (string, error) {
	pair, err := c.store.Load()
	if err != nil {
		return "", err
	}
	if pair == nil || pair.RefreshToken == "" {
		return "", c.teardown()
	}

	var next TokenPair
	status, err := c.doOnce(ctx, http.MethodPost, "/auth/refresh", "",
		map[string]string{"refreshToken": pair.RefreshToken}, &next)
	if err != nil {
		if status == http.StatusUnauthorized {
			return "", c.teardown()
		}
		return "", err
	}

	if err := c.store.Save(&next); err != nil {
		return "", err
	}
	return next.AccessToken, nil
}

// teardown ends the session. The expiry hook fires only when a stored pair
// was actually removed, so a second failed refresh arriving after the first
// already tore the session down does not announce the expiry again.
func (c *Client) teardown() error {
	pair, err := c.store.Load()
	if err == nil && pair == nil {
		return ErrSessionExpired
	}
	_ = c.store.Clear()
	if c.OnSessionExpired != nil {
		c.OnSessionExpired()
	}
	return ErrSessionExpired
}

// Register creates an account and stores the opened session.
func (c *Client) Register(ctx context.Context, email, name, password string) (*Profile, error) {
	var res sessionResponse
	_, err := c.doOnce(ctx, http.MethodPost, "/auth/register", "",
		map[string]string{"email": email, "name": name, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(&res.TokenPair); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Login authenticates and stores the opened session.
func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	var res sessionResponse
	_, err := c.doOnce(ctx, http.MethodPost, "/auth/login", "",
		map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(&res.TokenPair); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Logout revokes the session server-side and drops the stored pair. The
// local pair is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if clearErr := c.store.Clear(); clearErr != nil {
		return clearErr
	}
	if err != nil && !errors.Is(err, ErrSessionExpired) && !errors.Is(err, ErrNoSession) {
		return err
	}
	return nil
}

func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.doOnce(ctx, http.MethodPost, "/auth/forgot-password", "",
		map[string]string{"email": email}, nil)
	return err
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	_, err := c.doOnce(ctx, http.MethodPost, "/auth/reset-password", "",
		map[string]string{"token": token, "newPassword": newPassword}, nil)
	return err
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) CreateAlbum(ctx context.Context, title, description string) (*Album, error) {
	var album Album
	err := c.do(ctx, http.MethodPost, "/albums/",
		map[string]string{"title": title, "description": description}, &album)
	if err != nil {
		return nil, err
	}
	return &album, nil
}

func (c *Client) ListAlbums(ctx context.Context) ([]*Album, error) {
	var albums []*Album
	if err := c.do(ctx, http.MethodGet, "/albums/", nil, &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

// RenameAlbum updates the album's title, leaving the description alone.
func (c *Client) RenameAlbum(ctx context.Context, albumID, title string) (*Album, error) {
	var album Album
	err := c.do(ctx, http.MethodPatch, "/albums/"+albumID,
		map[string]string{"title": title}, &album)
	if err != nil {
		return nil, err
	}
	return &album, nil
}

// DeleteAlbum removes an album. The server refuses while photos remain.
func (c *Client) DeleteAlbum(ctx context.Context, albumID string) error {
	return c.do(ctx, http.MethodDelete, "/albums/"+albumID, nil, nil)
}

func (c *Client) ShareAlbum(ctx context.Context, albumID string, isPublic bool) (*Album, error) {
	var album Album
	err := c.do(ctx, http.MethodPost, "/albums/"+albumID+"/share",
		map[string]bool{"isPublic": isPublic}, &album)
	if err != nil {
		return nil, err
	}
	return &album, nil
}

// SharedAlbum fetches a publicly shared album. No session required.
func (c *Client) SharedAlbum(ctx context.Context, shareToken string) (*SharedAlbum, error) {
	var shared SharedAlbum
	_, err := c.doOnce(ctx, http.MethodGet, "/public/albums/"+shareToken, "", nil, &shared)
	if err != nil {
		return nil, err
	}
	return &shared, nil
}

type uploadURLResponse struct {
	Photo     *Photo `json:"photo"`
	UploadURL string `json:"uploadUrl"`
}

// RequestUploadURL registers a photo and returns the presigned PUT URL to
// send the bytes to.
func (c *Client) RequestUploadURL(ctx context.Context, albumID, fileName, contentType string) (*Photo, string, error) {
	var res uploadURLResponse
	err := c.do(ctx, http.MethodPost, "/albums/"+albumID+"/photos/upload-url",
		map[string]string{"fileName": fileName, "contentType": contentType}, &res)
	if err != nil {
		return nil, "", err
	}
	return res.Photo, res.UploadURL, nil
}

func (c *Client) ListPhotos(ctx context.Context, albumID string) ([]*Photo, error) {
	var photos []*Photo
	if err := c.do(ctx, http.MethodGet, "/albums/"+albumID+"/photos", nil, &photos); err != nil {
		return nil, err
	}
	return photos, nil
}

func (c *Client) DeletePhoto(ctx context.Context, photoID string) error {
	return c.do(ctx, http.MethodDelete, "/photos/"+photoID, nil, nil)
}

// UploadFile PUTs raw bytes to a presigned URL, outside the API surface and
// without a bearer token.
func (c *Client) UploadFile(ctx context.Context, uploadURL, contentType string, data io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, data)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: "upload rejected"}
	}
	return nil
}
