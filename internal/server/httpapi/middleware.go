package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/photovault/photovault/internal/server/auth"
	"github.com/photovault/photovault/internal/server/models"
)

type contextKey string

const userKey contextKey = "authUser"

// ProfileLoader resolves a verified user id to its account profile.
type ProfileLoader interface {
	Profile(ctx context.Context, userID string) (*models.PublicProfile, error)
}

// AuthGate guards routes with the access token. It verifies the bearer
// token's signature, expiry, and token class, then loads the account and
// places it in the request context. It deliberately does not consult the
// stored refresh token: an access token stays usable until it expires even
// after logout, which bounds session staleness to the access token lifetime.
type AuthGate struct {
	codec *auth.Codec
	users ProfileLoader
}

func NewAuthGate(codec *auth.Codec, users ProfileLoader) *AuthGate {
	return &AuthGate{codec: codec, users: users}
}

func (g *AuthGate) resolve(r *http.Request) (*models.PublicProfile, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, false
	}

	claims, err := g.codec.Verify(parts[1], auth.TokenClassAccess)
	if err != nil {
		return nil, false
	}

	user, err := g.users.Profile(r.Context(), claims.UserID)
	if err != nil {
		return nil, false
	}
	return user, true
}

// Authenticate rejects the request with 401 unless it carries a valid
// access token for an existing account.
func (g *AuthGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := g.resolve(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// MaybeAuthenticate attaches the account when a valid access token is
// present and proceeds anonymously otherwise. Used on public share routes
// that behave the same either way but may log the viewer.
func (g *AuthGate) MaybeAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := g.resolve(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), userKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser returns the authenticated account from the request context.
func GetUser(ctx context.Context) (*models.PublicProfile, bool) {
	user, ok := ctx.Value(userKey).(*models.PublicProfile)
	return user, ok
}
