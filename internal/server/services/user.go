// Package services contains server-side business logic. This file implements
// UserService, which owns the account lifecycle: registration, login/logout,
// profile updates, admin management, and issuing/verifying JWTs with the
// refresh token persisted on the account record.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkovalev/accountd/internal/common"
	"github.com/dkovalev/accountd/internal/dbx"
	"github.com/dkovalev/accountd/internal/server/auth"
	"github.com/dkovalev/accountd/internal/server/config"
	"github.com/dkovalev/accountd/internal/server/models"
	"github.com/dkovalev/accountd/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserChanges describes a partial update. Nil fields are left untouched.
// A non-nil Password is re-hashed before persisting; IsAdmin is honored only
// on the admin update path.
type UserChanges struct {
	Username *string
	Fullname *string
	Email    *string
	Password *string
	IsAdmin  *bool
}

// UserService provides account-related operations:
// - Register: create accounts with hashed passwords
// - Login / Logout: verify credentials and manage the token pair
// - Authenticate: resolve an access token to the account it belongs to
// - Get / List / UpdateProfile / AdminUpdate / Delete: account management
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	accessTokenKey               []byte
	refreshTokenKey              []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		accessTokenKey:               []byte(cfg.AccessTokenKey),
		refreshTokenKey:              []byte(cfg.RefreshTokenKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new account. All four fields are required; the password
// is stored only as a bcrypt hash. A username or email already in use yields
// common.ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, fullname, email, password string) (*models.User, error) {
	if username == "" || fullname == "" || email == "" || password == "" {
		return nil, common.ErrorValidation
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{Username: username, Fullname: fullname, Email: email, PasswordHash: hash}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the password for the account with the given email and, on
// success, returns the account together with a fresh TokenPair. The refresh
// token is persisted on the account row; issuing a new pair implicitly
// revokes the previous refresh token by overwrite.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, common.ErrorInternal
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, nil, common.ErrorUnauthorized
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout drops the stored refresh token, ending the account's session.
// Outstanding access tokens stay valid until they expire.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	repo := s.repomanager.Users(s.db)
	if err := repo.SetRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return common.ErrorInternal
	}
	return nil
}

// Authenticate verifies an access token and resolves it to the account it was
// issued for. The returned record has credential fields blanked so it can be
// attached to a request context.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseAccessToken(token, s.accessTokenKey)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, common.ErrorInternal
	}

	user.PasswordHash = ""
	user.RefreshToken = ""
	return user, nil
}

// Get returns the account with the given id. A malformed id behaves like a
// missing account.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// List returns all accounts. An empty database yields an empty slice, not an
// error.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).List(ctx)
}

// UpdateProfile applies a partial self-service update. The admin flag is
// ignored even when set on the changes.
func (s *UserService) UpdateProfile(ctx context.Context, id string, changes *UserChanges) (*models.User, error) {
	return s.update(ctx, id, changes, false)
}

// AdminUpdate applies a partial update on behalf of an admin, including the
// admin flag.
func (s *UserService) AdminUpdate(ctx context.Context, id string, changes *UserChanges) (*models.User, error) {
	return s.update(ctx, id, changes, true)
}

// Delete removes an account. Admin accounts are protected and yield
// common.ErrAdminProtected.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user.IsAdmin {
			return common.ErrAdminProtected
		}
		return repo.Delete(ctx, id)
	})
}

// --- helpers below ---

func (s *UserService) update(ctx context.Context, id string, changes *UserChanges, allowAdmin bool) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	var updated *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if changes.Username != nil {
			user.Username = *changes.Username
		}
		if changes.Fullname != nil {
			user.Fullname = *changes.Fullname
		}
		if changes.Email != nil {
			user.Email = *changes.Email
		}
		if changes.Password != nil {
			// re-hash only when the password is part of the changeset
			hash, err := hashPassword(*changes.Password)
			if err != nil {
				return common.ErrorInternal
			}
			user.PasswordHash = hash
		}
		if allowAdmin && changes.IsAdmin != nil {
			user.IsAdmin = *changes.IsAdmin
		}

		updated, err = repo.Update(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateAccessToken(user.ID, user.Email, s.accessTokenKey, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := auth.GenerateRefreshToken(user.ID, s.refreshTokenKey, s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	repo := s.repomanager.Users(s.db)
	if err := repo.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
