package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okulikov/authd/internal/common"
	"github.com/okulikov/authd/internal/server/repositories/repomanager"
)

// TokenLength is the fixed size of a session token: 128 bits from the
// operating system's CSPRNG, enough that collisions and guesses stay
// negligible over any realistic token volume.
const TokenLength = 16

// SessionService owns the opaque session token store. A token moves from
// Unissued to Active on Issue and to Revoked on Revoke, RevokeAllForUser, or
// the user-deletion cascade; Revoked is terminal and token values are never
// reissued.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager) *SessionService {
	return &SessionService{db: db, repomanager: m}
}

// Issue mints a fresh random token bound to userID and persists it.
// A userID that does not reference a live user yields common.ErrNotFound.
func (s *SessionService) Issue(ctx context.Context, userID int64) ([]byte, error) {
	token, err := common.MakeRandByteArray(TokenLength)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	repo := s.repomanager.Sessions(s.db)
	if err := repo.Create(ctx, token, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error storing session: %w", err)
	}
	return token, nil
}

// Resolve maps a token to its user id. Absent tokens, malformed tokens, and
// sessions without an associated user all yield common.ErrInvalidSession.
// The row found by the store is re-checked with a constant-time comparison
// before the user id is released.
func (s *SessionService) Resolve(ctx context.Context, token []byte) (int64, error) {
	if len(token) != TokenLength {
		return 0, common.ErrInvalidSession
	}

	repo := s.repomanager.Sessions(s.db)
	session, err := repo.Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, common.ErrInvalidSession
		}
		return 0, fmt.Errorf("error fetching session: %w", err)
	}

	if subtle.ConstantTimeCompare(session.Token, token) != 1 {
		return 0, common.ErrInvalidSession
	}
	if !session.UserID.Valid {
		return 0, common.ErrInvalidSession
	}
	return session.UserID.Int64, nil
}

// Revoke removes a token. Revoking an absent token is a no-op success.
func (s *SessionService) Revoke(ctx context.Context, token []byte) error {
	return s.repomanager.Sessions(s.db).Delete(ctx, token)
}

// RevokeAllForUser removes every session bound to the user.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID int64) error {
	return s.repomanager.Sessions(s.db).DeleteByUserID(ctx, userID)
}
