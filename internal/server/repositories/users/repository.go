// Package users declares the server-side repository contract for the user
// registry: identities, unique usernames, permission levels, and derived
// credential records.
package users

import (
	"context"
	"database/sql"

	"github.com/okulikov/authd/internal/server/models"
)

// Repository defines persistence operations over the users table.
type Repository interface {
	// Create inserts a new user and returns it with the store-assigned id.
	// A username collision yields common.ErrDuplicateUsername; the check and
	// the insert are one atomic statement backed by the unique constraint.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the full user row, or common.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByID returns the full user row, or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetPermissionLevel returns the user's permission level, or
	// common.ErrNotFound when the row is gone.
	GetPermissionLevel(ctx context.Context, id int64) (int32, error)

	// UpdatePassword replaces the stored derived credential.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// UpdatePermissionLevel sets the permission level.
	UpdatePermissionLevel(ctx context.Context, id int64, level int32) error

	// UpdateProfile replaces the opaque profile payload.
	UpdateProfile(ctx context.Context, id int64, profile sql.NullString) error

	// Delete removes a user. Deleting a non-existent id is a no-op success;
	// the sessions FK cascade removes the user's sessions in the same
	// statement.
	Delete(ctx context.Context, id int64) error

	// ListUsernames returns up to limit usernames.
	ListUsernames(ctx context.Context, limit int) ([]string, error)

	// ListUsernamesByLevel returns up to limit usernames holding exactly the
	// given permission level.
	ListUsernamesByLevel(ctx context.Context, level int32, limit int) ([]string, error)
}
