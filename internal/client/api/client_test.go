package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a minimal stand-in for the server: one valid access token,
// one valid refresh token, both rotated on refresh. It counts refresh calls
// so tests can assert on single-flight behavior.
type fakeBackend struct {
	mu           sync.Mutex
	access       string
	refresh      string
	refreshCalls atomic.Int64
	refuseAll    bool          // 401 every authed call regardless of token
	refreshDelay time.Duration // set before issuing requests
	srv          *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{access: "access-1", refresh: "refresh-1"}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"user":         map[string]string{"id": "u1", "email": "alice@test.com", "name": "Alice"},
			"accessToken":  b.access,
			"refreshToken": b.refresh,
		})
	})
	mux.HandleFunc("POST /api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refreshDelay > 0 {
			time.Sleep(b.refreshDelay)
		}
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()
		if req.RefreshToken != b.refresh {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		n := strconv.FormatInt(b.refreshCalls.Load()+1, 10)
		b.access = "access-" + n
		b.refresh = "refresh-" + n
		writeJSON(w, http.StatusOK, map[string]string{
			"accessToken":  b.access,
			"refreshToken": b.refresh,
		})
	})
	mux.HandleFunc("GET /api/v1/auth/profile", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		ok := !b.refuseAll && r.Header.Get("Authorization") == "Bearer "+b.access
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": "u1", "email": "alice@test.com", "name": "Alice"})
	})
	mux.HandleFunc("GET /api/v1/albums/nope", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// expireAccess invalidates the current access token without touching the
// refresh token, the situation an expired (but not rotated-out) session is in.
func (b *fakeBackend) expireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = "access-expired-" + b.access
}

func newClientFor(t *testing.T, b *fakeBackend) *Client {
	t.Helper()
	c := NewClient(b.srv.URL, NewMemoryTokenStore(), 5*time.Second)
	_, err := c.Login(context.Background(), "alice@test.com", "Str0ngPass!")
	require.NoError(t, err)
	return c
}

func TestLoginStoresPair(t *testing.T) {
	b := newFakeBackend(t)
	c := newClientFor(t, b)

	pair, err := c.store.Load()
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.Equal(t, "access-1", pair.AccessToken)
	assert.Equal(t, "refresh-1", pair.RefreshToken)
}

func TestProfile_NoSession(t *testing.T) {
	b := newFakeBackend(t)
	c := NewClient(b.srv.URL, NewMemoryTokenStore(), 5*time.Second)

	_, err := c.Profile(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRefreshOnExpiredAccessToken(t *testing.T) {
	b := newFakeBackend(t)
	c := newClientFor(t, b)
	b.expireAccess()

	profile, err := c.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice@test.com", profile.Email)
	assert.Equal(t, int64(1), b.refreshCalls.Load())

	// the rotated pair is persisted for the next call
	pair, err := c.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", pair.RefreshToken)
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	b := newFakeBackend(t)
	c := newClientFor(t, b)
	b.expireAccess()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Profile(context.Background())
		}()
	}
	wg.Wait()

	for i := range n {
		assert.NoError(t, errs[i], "request %d", i)
	}
	assert.Equal(t, int64(1), b.refreshCalls.Load())
}

func TestRefreshFailureTearsDownSession(t *testing.T) {
	b := newFakeBackend(t)
	c := newClientFor(t, b)

	var expired atomic.Int64
	c.OnSessionExpired = func() { expired.Add(1) }

	// poison the stored pair so both the access call and the refresh fail
	require.NoError(t, c.store.Save(&TokenPair{AccessToken: "bogus", RefreshToken: "bogus"}))

	_, err := c.Profile(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, int64(1), expired.Load())

	pair, err := c.store.Load()
	require.NoError(t, err)
	assert.Nil(t, pair)

	// with the pair gone there is no session to retry with
	_, err = c.Profile(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestConcurrentRefreshFailureFlushesQueue(t *testing.T) {
	b := newFakeBackend(t)
	b.refreshDelay = 30 * time.Millisecond
	c := newClientFor(t, b)

	var expired atomic.Int64
	c.OnSessionExpired = func() { expired.Add(1) }

	// poison the stored pair so every access call and the refresh itself fail
	require.NoError(t, c.store.Save(&TokenPair{AccessToken: "bogus", RefreshToken: "bogus"}))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Profile(context.Background())
		}()
	}
	wg.Wait()

	// every queued caller settles with an error; a caller arriving after the
	// store was already cleared sees the missing session instead
	for i := range n {
		if !assert.Error(t, errs[i], "request %d", i) {
			continue
		}
		assert.True(t,
			errors.Is(errs[i], ErrSessionExpired) || errors.Is(errs[i], ErrNoSession),
			"request %d: unexpected error %v", i, errs[i])
	}
	assert.Equal(t, int64(1), expired.Load())

	pair, err := c.store.Load()
	require.NoError(t, err)
	assert.Nil(t, pair)
}

func TestTeardownAnnouncesExpiryOnce(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", NewMemoryTokenStore(), time.Second)

	var expired atomic.Int64
	c.OnSessionExpired = func() { expired.Add(1) }

	require.NoError(t, c.store.Save(&TokenPair{AccessToken: "a", RefreshToken: "r"}))

	// the second teardown finds nothing to clear and stays silent
	assert.ErrorIs(t, c.teardown(), ErrSessionExpired)
	assert.ErrorIs(t, c.teardown(), ErrSessionExpired)
	assert.Equal(t, int64(1), expired.Load())
}

func TestRetryIsBoundedToOne(t *testing.T) {
	b := newFakeBackend(t)
	c := newClientFor(t, b)

	// every authed call 401s even after a successful refresh
	b.mu.Lock()
	b.refuseAll = true
	b.mu.Unlock()

	_, err := c.Profile(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int64(1), b.refreshCalls.Load())
}

func TestNon401ErrorsBypassRefresh(t *testing.T) {
	b := newFakeBackend(t)
	c := newClientFor(t, b)

	var photos []*Photo
	err := c.do(context.Background(), http.MethodGet, "/albums/nope", nil, &photos)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, int64(0), b.refreshCalls.Load())
}

func TestLogoutClearsStoreEvenWhenServerRejects(t *testing.T) {
	b := newFakeBackend(t)
	c := newClientFor(t, b)

	// no logout route is registered on the fake; the server answers 404
	err := c.Logout(context.Background())
	require.Error(t, err)

	pair, loadErr := c.store.Load()
	require.NoError(t, loadErr)
	assert.Nil(t, pair)
}
