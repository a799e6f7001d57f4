package services

import (
	"context"
	"errors"

	"github.com/okulikov/authd/internal/common"
)

// AccessGate answers "is this token valid, and does its user meet a required
// permission level?". It is the only component consuming both stores.
type AccessGate struct {
	sessions    *SessionService
	credentials *CredentialService
}

// NewAccessGate constructs an AccessGate over the two stores.
func NewAccessGate(sessions *SessionService, credentials *CredentialService) *AccessGate {
	return &AccessGate{sessions: sessions, credentials: credentials}
}

// Authorize resolves the token to a user and checks the user's permission
// level against minLevel, returning the authenticated user id.
//
// A session whose user vanished between resolve and the permission lookup is
// dangling; the gate revokes it so it self-heals, and reports
// common.ErrInvalidSession rather than leaking that a user existed.
func (g *AccessGate) Authorize(ctx context.Context, token []byte, minLevel int32) (int64, error) {
	userID, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		return 0, err
	}

	level, err := g.credentials.PermissionLevel(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_ = g.sessions.Revoke(ctx, token)
			return 0, common.ErrInvalidSession
		}
		return 0, err
	}

	if level < minLevel {
		return 0, common.ErrInsufficientPermission
	}
	return userID, nil
}
