package services

import (
	"bytes"
	"context"
	"database/sql"
	"sync"

	"github.com/okulikov/authd/internal/common"
	"github.com/okulikov/authd/internal/dbx"
	"github.com/okulikov/authd/internal/server/models"
	"github.com/okulikov/authd/internal/server/repositories/sessions"
	"github.com/okulikov/authd/internal/server/repositories/users"
)

// memStore is an in-memory stand-in for the two tables, including the
// uniqueness constraint and the delete cascade, so service flows can be
// exercised end to end without Postgres.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*models.User
	sessions map[string]sql.NullInt64
}

func newMemStore() *memStore {
	return &memStore{
		nextID:   1,
		users:    make(map[int64]*models.User),
		sessions: make(map[string]sql.NullInt64),
	}
}

func (st *memStore) findByUsername(username string) *models.User {
	for _, u := range st.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

type fakeRepoManager struct {
	st *memStore

	// error overrides for failure-path tests
	usersErr    error
	sessionsErr error
}

func (m *fakeRepoManager) Conn() *sql.DB                       { return nil }
func (m *fakeRepoManager) RunMigrations(context.Context) error { return nil }
func (m *fakeRepoManager) Close() error                        { return nil }

func (m *fakeRepoManager) Users(db dbx.DBTX) users.Repository {
	return &memUsersRepo{st: m.st, err: m.usersErr}
}

func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessions.Repository {
	return &memSessionsRepo{st: m.st, err: m.sessionsErr}
}

type memUsersRepo struct {
	st  *memStore
	err error
}

func (r *memUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.findByUsername(user.Username) != nil {
		return nil, common.ErrDuplicateUsername
	}
	user.ID = r.st.nextID
	r.st.nextID++
	stored := *user
	r.st.users[user.ID] = &stored
	return user, nil
}

func (r *memUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if u := r.st.findByUsername(username); u != nil {
		copied := *u
		return &copied, nil
	}
	return nil, common.ErrNotFound
}

func (r *memUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memUsersRepo) GetPermissionLevel(ctx context.Context, id int64) (int32, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return 0, common.ErrNotFound
	}
	return u.PermissionLevel, nil
}

func (r *memUsersRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if r.err != nil {
		return r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *memUsersRepo) UpdatePermissionLevel(ctx context.Context, id int64, level int32) error {
	if r.err != nil {
		return r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.PermissionLevel = level
	return nil
}

func (r *memUsersRepo) UpdateProfile(ctx context.Context, id int64, profile sql.NullString) error {
	if r.err != nil {
		return r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Profile = profile
	return nil
}

func (r *memUsersRepo) Delete(ctx context.Context, id int64) error {
	if r.err != nil {
		return r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	delete(r.st.users, id)
	// emulate the FK cascade
	for token, userID := range r.st.sessions {
		if userID.Valid && userID.Int64 == id {
			delete(r.st.sessions, token)
		}
	}
	return nil
}

func (r *memUsersRepo) ListUsernames(ctx context.Context, limit int) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var names []string
	for _, u := range r.st.users {
		if len(names) == limit {
			break
		}
		names = append(names, u.Username)
	}
	return names, nil
}

func (r *memUsersRepo) ListUsernamesByLevel(ctx context.Context, level int32, limit int) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var names []string
	for _, u := range r.st.users {
		if len(names) == limit {
			break
		}
		if u.PermissionLevel == level {
			names = append(names, u.Username)
		}
	}
	return names, nil
}

type memSessionsRepo struct {
	st  *memStore
	err error
}

func (r *memSessionsRepo) Create(ctx context.Context, token []byte, userID int64) error {
	if r.err != nil {
		return r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.users[userID]; !ok {
		return common.ErrNotFound
	}
	r.st.sessions[string(token)] = sql.NullInt64{Int64: userID, Valid: true}
	return nil
}

func (r *memSessionsRepo) Find(ctx context.Context, token []byte) (*models.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	userID, ok := r.st.sessions[string(token)]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &models.Session{Token: bytes.Clone(token), UserID: userID}, nil
}

func (r *memSessionsRepo) Delete(ctx context.Context, token []byte) error {
	if r.err != nil {
		return r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	delete(r.st.sessions, string(token))
	return nil
}

func (r *memSessionsRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if r.err != nil {
		return r.err
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for token, id := range r.st.sessions {
		if id.Valid && id.Int64 == userID {
			delete(r.st.sessions, token)
		}
	}
	return nil
}
