// Package services contains server-side business logic: the credential
// store, the session store, and the access gate built on top of them.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/okulikov/authd/internal/common"
	"github.com/okulikov/authd/internal/cryptox"
	"github.com/okulikov/authd/internal/dbx"
	"github.com/okulikov/authd/internal/server/models"
	"github.com/okulikov/authd/internal/server/repositories/repomanager"
)

// listLimit caps user listings.
const listLimit = 100

// usernameRe is the fixed username policy: 1-19 characters, lowercase
// letters, digits, and hyphens. The admitted alphabet has no uppercase, so
// lookups are case-sensitive without any case collisions being possible.
var usernameRe = regexp.MustCompile(`^[a-z0-9-]{1,19}$`)

// CredentialService owns the user registry: registration, credential
// verification, permission levels, profiles, and account deletion.
type CredentialService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager

	// decoyHash is burned on lookups of unknown usernames so that Verify
	// costs one argon2 derivation whether or not the username exists.
	decoyHash string
}

// NewCredentialService constructs a CredentialService. The decoy record is
// derived once up front with the same parameters as real credentials.
func NewCredentialService(db *sql.DB, m repomanager.RepositoryManager) (*CredentialService, error) {
	decoy, err := common.MakeRandByteArray(16)
	if err != nil {
		return nil, err
	}
	decoyHash, err := cryptox.HashPassword(decoy)
	if err != nil {
		return nil, err
	}
	return &CredentialService{db: db, repomanager: m, decoyHash: decoyHash}, nil
}

// Register creates a new user and returns its store-assigned id.
//
// The username must match the documented policy and the credential must be
// non-empty, otherwise common.ErrInvalidInput. The uniqueness check and the
// insert are one atomic statement: under concurrent registration of the same
// username exactly one caller succeeds and the rest get
// common.ErrDuplicateUsername.
func (s *CredentialService) Register(ctx context.Context, username string, credential []byte, profile *string, permissionLevel int32) (int64, error) {
	if !usernameRe.MatchString(username) {
		return 0, fmt.Errorf("%w: bad username", common.ErrInvalidInput)
	}
	if len(credential) == 0 {
		return 0, fmt.Errorf("%w: empty credential", common.ErrInvalidInput)
	}

	passwordHash, err := cryptox.HashPassword(credential)
	if err != nil {
		return 0, fmt.Errorf("error deriving credential: %w", err)
	}

	user := &models.User{
		Username:        username,
		PermissionLevel: permissionLevel,
		PasswordHash:    passwordHash,
	}
	if profile != nil {
		user.Profile = sql.NullString{String: *profile, Valid: true}
	}

	repo := s.repomanager.Users(s.db)
	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return 0, err
		}
		return 0, fmt.Errorf("error creating user: %w", err)
	}
	return user.ID, nil
}

// Verify checks username+credential and returns the user id on success.
// Unknown usernames yield common.ErrNotFound, mismatching credentials
// common.ErrInvalidCredential — but both paths pay for a full argon2
// derivation, so existence does not show in the response time.
func (s *CredentialService) Verify(ctx context.Context, username string, credential []byte) (int64, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// burn a derivation against the decoy record
			_ = cryptox.VerifyPassword(s.decoyHash, credential)
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("error fetching user: %w", err)
	}

	if err := cryptox.VerifyPassword(user.PasswordHash, credential); err != nil {
		if errors.Is(err, common.ErrInvalidCredential) {
			return 0, err
		}
		return 0, fmt.Errorf("error verifying credential: %w", err)
	}
	return user.ID, nil
}

// PermissionLevel returns the user's permission level, or common.ErrNotFound
// when the user no longer exists.
func (s *CredentialService) PermissionLevel(ctx context.Context, userID int64) (int32, error) {
	return s.repomanager.Users(s.db).GetPermissionLevel(ctx, userID)
}

// GetByUsername returns the stored user row for the given username.
func (s *CredentialService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByUsername(ctx, username)
}

// GetByID returns the stored user row for the given id.
func (s *CredentialService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// Delete removes the user. Deleting an id that does not exist is a no-op
// success; the sessions FK cascade guarantees no session outlives the user.
func (s *CredentialService) Delete(ctx context.Context, userID int64) error {
	return s.repomanager.Users(s.db).Delete(ctx, userID)
}

// UpdateCredential replaces the stored derived credential and revokes every
// session of the user in the same transaction, so a stolen session does not
// survive a password change.
func (s *CredentialService) UpdateCredential(ctx context.Context, userID int64, newCredential []byte) error {
	if len(newCredential) == 0 {
		return fmt.Errorf("%w: empty credential", common.ErrInvalidInput)
	}

	passwordHash, err := cryptox.HashPassword(newCredential)
	if err != nil {
		return fmt.Errorf("error deriving credential: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, userID, passwordHash); err != nil {
			return err
		}
		return s.repomanager.Sessions(tx).DeleteByUserID(ctx, userID)
	})
}

// UpdatePermissionLevel sets the user's permission level.
func (s *CredentialService) UpdatePermissionLevel(ctx context.Context, userID int64, level int32) error {
	return s.repomanager.Users(s.db).UpdatePermissionLevel(ctx, userID, level)
}

// UpdateProfile replaces the user's opaque profile payload. A nil profile
// clears it.
func (s *CredentialService) UpdateProfile(ctx context.Context, userID int64, profile *string) error {
	var value sql.NullString
	if profile != nil {
		value = sql.NullString{String: *profile, Valid: true}
	}
	return s.repomanager.Users(s.db).UpdateProfile(ctx, userID, value)
}

// ListUsernames returns up to 100 usernames.
func (s *CredentialService) ListUsernames(ctx context.Context) ([]string, error) {
	return s.repomanager.Users(s.db).ListUsernames(ctx, listLimit)
}

// ListAdmins returns up to 100 usernames holding the admin level.
func (s *CredentialService) ListAdmins(ctx context.Context) ([]string, error) {
	return s.repomanager.Users(s.db).ListUsernamesByLevel(ctx, models.PermissionAdmin, listLimit)
}
