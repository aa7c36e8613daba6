// Package services contains server-side business logic. This file implements
// SessionService: registration, login, refresh-token rotation, logout, and
// the password-reset flow.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/photovault/photovault/internal/common"
	"github.com/photovault/photovault/internal/dbx"
	"github.com/photovault/photovault/internal/logging"
	"github.com/photovault/photovault/internal/server/auth"
	"github.com/photovault/photovault/internal/server/mail"
	"github.com/photovault/photovault/internal/server/models"
	"github.com/photovault/photovault/internal/server/repositories/repomanager"
	"github.com/photovault/photovault/internal/server/repositories/users"
)

// resetTokenValidity is the fixed lifetime of a password-reset token.
const resetTokenValidity = time.Hour

// dummyPasswordHash is compared against when an account is absent or has no
// password hash, so a failed login does the same bcrypt work on every path
// and response timing cannot reveal whether the email exists.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)

// SessionService manages the account session state machine. Each account
// holds at most one valid refresh token: register, login, and refresh all
// overwrite it, logout and password reset clear it. A refresh token that was
// rotated out fails the stored-value equality check and is rejected even
// though its signature is still valid.
type SessionService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	codec  *auth.Codec
	mailer mail.Mailer
	logger logging.Logger
}

func NewSessionService(db *sql.DB, repos repomanager.RepositoryManager, codec *auth.Codec, mailer mail.Mailer, logger logging.Logger) *SessionService {
	return &SessionService{db: db, repos: repos, codec: codec, mailer: mailer, logger: logger}
}

// NormalizeEmail lower-cases and trims an email address. All lookups and
// writes go through it so the unique index sees one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and opens its first session.
// Returns common.ErrorAlreadyExists when the email is taken.
func (s *SessionService) Register(ctx context.Context, email, name, password string) (*models.User, *auth.TokenPair, error) {
	email = NormalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hashing password: %w", err)
	}
	hashStr := string(hash)

	var user *models.User
	var pair *auth.TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		created, err := repo.Create(ctx, &models.User{Email: email, Name: name, PasswordHash: &hashStr})
		if err != nil {
			return err
		}

		pair, err = s.codec.IssuePair(created.ID, created.Email)
		if err != nil {
			return fmt.Errorf("issuing token pair: %w", err)
		}
		if err := repo.UpdateRefreshToken(ctx, created.ID, &pair.RefreshToken); err != nil {
			return err
		}

		user = created
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, nil, common.ErrorAlreadyExists
		}
		return nil, nil, fmt.Errorf("registering account: %w", err)
	}

	s.logger.Info(ctx, "account registered", "user_id", user.ID)
	return user, pair, nil
}

// Login verifies credentials and opens a new session, silently revoking any
// refresh token issued earlier: holding a session on a second device ends
// the first one. Absent accounts, passwordless accounts, and wrong passwords
// are indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error) {
	email = NormalizeEmail(email)
	repo := s.repos.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, nil, fmt.Errorf("loading account: %w", err)
	}

	hash := dummyPasswordHash
	if user != nil && user.PasswordHash != nil {
		hash = []byte(*user.PasswordHash)
	}
	cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if user == nil || user.PasswordHash == nil || cmpErr != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	pair, err := s.rotateSession(ctx, repo, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a fresh pair, rotating the stored
// token. Tokens that are invalid, expired, issued for a vanished account, or
// superseded by a later login/refresh all fail with common.ErrorUnauthorized.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken, auth.TokenClassRefresh)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	repo := s.repos.Users(s.db)
	user, err := repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}

	// Reuse of a rotated-out token is the signature of a stolen or stale
	// session; only the exact stored value may refresh.
	if user.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, common.ErrorUnauthorized
	}

	return s.rotateSession(ctx, repo, user)
}

// Logout clears the stored refresh token. Idempotent: logging out twice, or
// with no session at all, succeeds.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	if err := s.repos.Users(s.db).UpdateRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("clearing refresh token: %w", err)
	}
	return nil
}

// ForgotPassword issues a reset token and dispatches it by email. The caller
// gets the same nil result whether or not the account exists; the token is
// generated before the lookup and mail failures are only logged, keeping the
// two paths observably identical.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	token := uuid.NewString()
	expiresAt := time.Now().Add(resetTokenValidity)

	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("loading account: %w", err)
	}

	if err := s.repos.ResetTokens(s.db).Create(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, token); err != nil {
		s.logger.Error(ctx, "sending password reset email failed", "user_id", user.ID, "error", err.Error())
	}

	s.logger.Info(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token, stores the new password hash, and
// clears the stored refresh token so every open session must re-authenticate.
// Unknown, expired, and already-used tokens uniformly fail with
// common.ErrInvalidResetToken.
func (s *SessionService) ResetPassword(ctx context.Context, token, newPassword string) error {
	resetToken, err := s.repos.ResetTokens(s.db).FindActive(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidResetToken
		}
		return fmt.Errorf("loading reset token: %w", err)
	}

	user, err := s.repos.Users(s.db).GetByID(ctx, resetToken.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("loading account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		usersTx := s.repos.Users(tx)
		if err := usersTx.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
			return err
		}
		if err := s.repos.ResetTokens(tx).MarkUsed(ctx, resetToken.ID); err != nil {
			return err
		}
		// reset logs out every session
		return usersTx.UpdateRefreshToken(ctx, user.ID, nil)
	})
	if err != nil {
		return fmt.Errorf("resetting password: %w", err)
	}

	s.logger.Info(ctx, "password reset completed", "user_id", user.ID)
	return nil
}

// Profile returns the account's public profile.
func (s *SessionService) Profile(ctx context.Context, userID string) (*models.PublicProfile, error) {
	user, err := s.repos.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return user.Public(), nil
}

// PurgeExpiredResetTokens removes used and expired reset tokens.
func (s *SessionService) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.repos.ResetTokens(s.db).PurgeExpired(ctx)
}

func (s *SessionService) rotateSession(ctx context.Context, repo users.Repository, user *models.User) (*auth.TokenPair, error) {
	pair, err := s.codec.IssuePair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issuing token pair: %w", err)
	}
	if err := repo.UpdateRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("storing refresh token: %w", err)
	}
	return pair, nil
}
