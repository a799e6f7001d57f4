package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okulikov/authd/internal/common"
	"github.com/okulikov/authd/internal/dbx"
	"github.com/okulikov/authd/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, profile, permission_level, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Profile, user.PermissionLevel, user.PasswordHash).Scan(&user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, profile, permission_level, password FROM users
		WHERE username = $1
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.Profile, &user.PermissionLevel, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, profile, permission_level, password FROM users
		WHERE id = $1
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.Profile, &user.PermissionLevel, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetPermissionLevel(ctx context.Context, id int64) (int32, error) {
	query := `
		SELECT permission_level FROM users
		WHERE id = $1
	`
	var level int32
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&level); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return level, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE users SET password = $1
		WHERE id = $2
	`
	return r.execExpectingRow(ctx, query, passwordHash, id)
}

func (r *PostgresRepository) UpdatePermissionLevel(ctx context.Context, id int64, level int32) error {
	query := `
		UPDATE users SET permission_level = $1
		WHERE id = $2
	`
	return r.execExpectingRow(ctx, query, level, id)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id int64, profile sql.NullString) error {
	query := `
		UPDATE users SET profile = $1
		WHERE id = $2
	`
	return r.execExpectingRow(ctx, query, profile, id)
}

// Delete removes the user row. Zero rows affected is a success: deletion is
// idempotent. The sessions cascade is a property of the FK, so the user and
// its sessions disappear in one atomic statement.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM users
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListUsernames(ctx context.Context, limit int) ([]string, error) {
	query := `
		SELECT username FROM users
		ORDER BY id
		LIMIT $1
	`
	return r.queryUsernames(ctx, query, limit)
}

func (r *PostgresRepository) ListUsernamesByLevel(ctx context.Context, level int32, limit int) ([]string, error) {
	query := `
		SELECT username FROM users
		WHERE permission_level = $1
		ORDER BY id
		LIMIT $2
	`
	return r.queryUsernames(ctx, query, level, limit)
}

// execExpectingRow runs an UPDATE that must touch exactly one row and maps
// "no rows touched" to common.ErrNotFound.
func (r *PostgresRepository) execExpectingRow(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) queryUsernames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		usernames = append(usernames, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return usernames, nil
}
