// Package users declares the repository contract for persisted account
// records and provides the PostgreSQL implementation.
package users

import (
	"context"

	"github.com/dkovalev/accountd/internal/server/models"
)

// Repository defines persistence operations on account records.
type Repository interface {
	// Create persists a new user (the password must already be hashed) and
	// returns the stored record. Unique-constraint violations on username or
	// email are reported as common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByID returns the user with the given id or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail returns the user with the given email or common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]*models.User, error)

	// Update rewrites the mutable fields (username, fullname, email,
	// password_hash, is_admin) of an existing row and returns the stored
	// record with fresh timestamps.
	Update(ctx context.Context, user *models.User) (*models.User, error)

	// SetRefreshToken overwrites the stored refresh token without touching
	// any other field. An empty token stores NULL, ending the session.
	SetRefreshToken(ctx context.Context, id string, token string) error

	// Delete removes the user with the given id or returns common.ErrorNotFound.
	Delete(ctx context.Context, id string) error
}
