package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/okulikov/authd/internal/common"
	"github.com/okulikov/authd/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, st *memStore, username string, level int32) int64 {
	t.Helper()
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextID
	st.nextID++
	st.users[id] = &models.User{ID: id, Username: username, PermissionLevel: level, PasswordHash: "h"}
	return id
}

func TestIssue_TokensAreDistinct(t *testing.T) {
	st := newMemStore()
	svc := NewSessionService(nil, &fakeRepoManager{st: st})
	ctx := context.Background()

	id := seedUser(t, st, "alice", models.PermissionUser)

	const n = 256
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		token, err := svc.Issue(ctx, id)
		require.NoError(t, err)
		require.Len(t, token, TokenLength)
		if _, dup := seen[string(token)]; dup {
			t.Fatalf("duplicate token after %d issues", i)
		}
		seen[string(token)] = struct{}{}
	}
}

func TestIssue_UnknownUser(t *testing.T) {
	svc := NewSessionService(nil, &fakeRepoManager{st: newMemStore()})

	_, err := svc.Issue(context.Background(), 404)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestResolve(t *testing.T) {
	st := newMemStore()
	svc := NewSessionService(nil, &fakeRepoManager{st: st})
	ctx := context.Background()

	id := seedUser(t, st, "alice", models.PermissionUser)
	token, err := svc.Issue(ctx, id)
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// unknown token of the right length
	unknown := make([]byte, TokenLength)
	copy(unknown, token)
	unknown[0] ^= 0xff
	_, err = svc.Resolve(ctx, unknown)
	assert.ErrorIs(t, err, common.ErrInvalidSession)

	// malformed token
	_, err = svc.Resolve(ctx, []byte("short"))
	assert.ErrorIs(t, err, common.ErrInvalidSession)
	_, err = svc.Resolve(ctx, nil)
	assert.ErrorIs(t, err, common.ErrInvalidSession)
}

func TestResolve_UnassociatedSession(t *testing.T) {
	st := newMemStore()
	svc := NewSessionService(nil, &fakeRepoManager{st: st})

	token := make([]byte, TokenLength)
	st.sessions[string(token)] = sql.NullInt64{}

	_, err := svc.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, common.ErrInvalidSession)
}

func TestRevoke_Idempotent(t *testing.T) {
	st := newMemStore()
	svc := NewSessionService(nil, &fakeRepoManager{st: st})
	ctx := context.Background()

	id := seedUser(t, st, "alice", models.PermissionUser)
	token, err := svc.Issue(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))
	_, err = svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, common.ErrInvalidSession)

	// revoking again is still a success
	assert.NoError(t, svc.Revoke(ctx, token))
}

func TestRevokeAllForUser(t *testing.T) {
	st := newMemStore()
	svc := NewSessionService(nil, &fakeRepoManager{st: st})
	ctx := context.Background()

	alice := seedUser(t, st, "alice", models.PermissionUser)
	bob := seedUser(t, st, "bob", models.PermissionUser)

	var aliceTokens [][]byte
	for i := 0; i < 3; i++ {
		token, err := svc.Issue(ctx, alice)
		require.NoError(t, err)
		aliceTokens = append(aliceTokens, token)
	}
	bobToken, err := svc.Issue(ctx, bob)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAllForUser(ctx, alice))

	for _, token := range aliceTokens {
		_, err := svc.Resolve(ctx, token)
		assert.ErrorIs(t, err, common.ErrInvalidSession)
	}

	got, err := svc.Resolve(ctx, bobToken)
	require.NoError(t, err)
	assert.Equal(t, bob, got)
}

func TestIssue_StorageError(t *testing.T) {
	st := newMemStore()
	m := &fakeRepoManager{st: st, sessionsErr: errors.New("db down")}
	svc := NewSessionService(nil, m)

	_, err := svc.Issue(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrNotFound)
}
