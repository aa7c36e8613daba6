// Package auth implements the signed-token codec used by the session
// protocol: short-lived access tokens and long-lived refresh tokens, signed
// with independent secrets so one class can never be replayed as the other.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/photovault/photovault/internal/common"
)

// TokenClass distinguishes access tokens from refresh tokens.
type TokenClass string

const (
	TokenClassAccess  TokenClass = "access"
	TokenClassRefresh TokenClass = "refresh"
)

// Claims carries the signed payload: account id, email, and token class,
// plus the registered expiry claim.
type Claims struct {
	jwt.RegisteredClaims
	UserID string     `json:"uid"`
	Email  string     `json:"email"`
	Class  TokenClass `json:"cls"`
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Codec issues and verifies signed tokens. It holds no I/O; both operations
// are pure given the configured secrets and lifetimes.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewCodec constructs a Codec. The two secrets must be distinct: with a
// shared secret a captured access token would verify as a refresh token up
// to the class check, and the signature alone is meant to reject that.
func NewCodec(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	if string(accessSecret) == string(refreshSecret) {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	return &Codec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

func (c *Codec) secretFor(class TokenClass) ([]byte, time.Duration, error) {
	switch class {
	case TokenClassAccess:
		return c.accessSecret, c.accessTTL, nil
	case TokenClassRefresh:
		return c.refreshSecret, c.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("auth: unknown token class %q", class)
	}
}

// Issue signs a token of the given class for the account.
func (c *Codec) Issue(userID, email string, class TokenClass) (string, error) {
	secret, ttl, err := c.secretFor(class)
	if err != nil {
		return "", err
	}

	// The jti claim makes every issued token unique even within one clock
	// second; rotation detection relies on successive tokens differing.
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Email:  email,
		Class:  class,
	})

	return token.SignedString(secret)
}

// IssuePair signs a fresh access/refresh pair for the account.
func (c *Codec) IssuePair(userID, email string) (*TokenPair, error) {
	access, err := c.Issue(userID, email, TokenClassAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := c.Issue(userID, email, TokenClassRefresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify parses tokenString against the secret for expectedClass and returns
// its claims. It returns common.ErrInvalidToken when the token is malformed,
// tampered with, expired, or carries a different class than expected.
func (c *Codec) Verify(tokenString string, expectedClass TokenClass) (*Claims, error) {
	secret, _, err := c.secretFor(expectedClass)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Class != expectedClass || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
