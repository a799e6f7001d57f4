// Package sessions declares the server-side repository contract for the
// opaque session token store.
package sessions

import (
	"context"

	"github.com/okulikov/authd/internal/server/models"
)

// Repository defines persistence operations over the sessions table.
type Repository interface {
	// Create persists a token bound to userID. A userID that no longer
	// references a live user yields common.ErrNotFound (FK violation).
	Create(ctx context.Context, token []byte, userID int64) error

	// Find returns the session row for the given token, or
	// common.ErrNotFound when the token is absent.
	Find(ctx context.Context, token []byte) (*models.Session, error)

	// Delete removes a token. Deleting a non-existent token is not an error.
	Delete(ctx context.Context, token []byte) error

	// DeleteByUserID removes every session bound to the user.
	DeleteByUserID(ctx context.Context, userID int64) error
}
