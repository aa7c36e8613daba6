package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photovault/photovault/internal/client/api"
	"github.com/photovault/photovault/internal/client/config"
)

func stubInputs(t *testing.T, lines []string, password string) {
	t.Helper()
	origText := getSimpleText
	origPassword := getPassword
	t.Cleanup(func() {
		getSimpleText = origText
		getPassword = origPassword
	})

	i := 0
	getSimpleText = func(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
		require.Less(t, i, len(lines), "unexpected prompt: %s", prompt)
		line := lines[i]
		i++
		return line, nil
	}
	getPassword = func(w io.Writer, prompt string) ([]byte, error) {
		return []byte(password), nil
	}
}

func newTestApp(t *testing.T, handler http.Handler) *App {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{ServerBaseURL: srv.URL, RequestTimeout: 5 * time.Second}
	return &App{
		config: cfg,
		client: api.NewClient(srv.URL, api.NewMemoryTokenStore(), cfg.RequestTimeout),
		reader: bufio.NewReader(strings.NewReader("")),
	}
}

func TestRegisterCommand(t *testing.T) {
	var gotBody map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":         map[string]string{"id": "u1", "email": gotBody["email"], "name": gotBody["name"]},
			"accessToken":  "at",
			"refreshToken": "rt",
		})
	})

	app := newTestApp(t, mux)
	stubInputs(t, []string{"alice@test.com", "Alice"}, "Str0ngPass!")

	require.NoError(t, app.Register(context.Background()))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "alice@test.com", gotBody["email"])
	assert.Equal(t, "Str0ngPass!", gotBody["password"])
}

func TestLoginCommand_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	})

	app := newTestApp(t, mux)
	stubInputs(t, []string{"alice@test.com"}, "wrong")

	err := app.Login(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, app.isLoggedIn())
}

func TestForgotPasswordCommand(t *testing.T) {
	var asked string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		asked = req["email"]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})

	app := newTestApp(t, mux)
	stubInputs(t, []string{"alice@test.com"}, "")

	require.NoError(t, app.ForgotPassword(context.Background()))
	assert.Equal(t, "alice@test.com", asked)
}
