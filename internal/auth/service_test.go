package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	users    map[string]userRecord
	sessions map[string]sessionRecord
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]userRecord),
		sessions: make(map[string]sessionRecord),
	}
}

func (m *memStore) CreateUser(_ context.Context, name, email, hash, role string) (userRecord, error) {
	m.nextID++
	u := userRecord{
		ID:           fmt.Sprintf("00000000-0000-0000-0000-%012d", m.nextID),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[email] = u
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (userRecord, error) {
	u, ok := m.users[email]
	if !ok {
		return userRecord{}, errUserNotFound
	}
	return u, nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (userRecord, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return userRecord{}, errUserNotFound
}

func (m *memStore) CreateSession(_ context.Context, userID, tokenHash, userAgent, ip string, expiresAt time.Time) error {
	m.sessions[tokenHash] = sessionRecord{
		ID:        "session-" + tokenHash[:8],
		UserID:    userID,
		TokenHash: tokenHash,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
	}
	return nil
}

func (m *memStore) GetSessionByToken(_ context.Context, tokenHash string) (sessionRecord, error) {
	sess, ok := m.sessions[tokenHash]
	if !ok {
		return sessionRecord{}, errSessionNotFound
	}
	return sess, nil
}

func (m *memStore) RotateSessionToken(_ context.Context, sessionID, newTokenHash string, expiresAt time.Time) error {
	for hash, sess := range m.sessions {
		if sess.ID == sessionID {
			delete(m.sessions, hash)
			sess.TokenHash = newTokenHash
			sess.ExpiresAt = expiresAt
			m.sessions[newTokenHash] = sess
			return nil
		}
	}
	return errSessionNotFound
}

func (m *memStore) DeleteSessionByToken(_ context.Context, tokenHash string) error {
	delete(m.sessions, tokenHash)
	return nil
}

func newTestService(t *testing.T, store storeAPI) *Service {
	t.Helper()
	svc, err := NewService(Config{Store: store, Secret: "test-secret-test-secret"})
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	user, err := svc.Register(context.Background(), "Ghazi", "ghazi@technest.example", "s3cretpass")
	require.NoError(t, err)
	require.Equal(t, RoleCustomer, user.Role)

	result, err := svc.Login(context.Background(), "ghazi@technest.example", "s3cretpass", "test-agent", "127.0.0.1")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	identity, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.UserID)
	require.Equal(t, RoleCustomer, identity.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Ghazi", "ghazi@technest.example", "s3cretpass")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "ghazi@technest.example", "wrong", "", "")
	require.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, newMemStore())

	_, err := svc.Register(context.Background(), "", "a@b.c", "s3cretpass")
	require.Error(t, err)
	_, err = svc.Register(context.Background(), "Name", "", "s3cretpass")
	require.Error(t, err)
	_, err = svc.Register(context.Background(), "Name", "a@b.c", "short")
	require.Error(t, err)
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Ghazi", "ghazi@technest.example", "s3cretpass")
	require.NoError(t, err)
	login, err := svc.Login(context.Background(), "ghazi@technest.example", "s3cretpass", "", "")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token is gone after rotation.
	_, err = svc.Refresh(context.Background(), login.RefreshToken)
	require.Error(t, err)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	_, err := svc.Register(context.Background(), "Ghazi", "ghazi@technest.example", "s3cretpass")
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	svc.WithNow(func() time.Time { return past })
	login, err := svc.Login(context.Background(), "ghazi@technest.example", "s3cretpass", "", "")
	require.NoError(t, err)

	svc.WithNow(time.Now)
	_, err = svc.ParseAccessToken(login.AccessToken)
	require.Error(t, err)
}

func TestAdminRoleRoundTrips(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store)

	hash, err := argon2id.CreateHash("s3cretpass", argon2id.DefaultParams)
	require.NoError(t, err)
	_, err = store.CreateUser(context.Background(), "Admin", "admin@technest.example", hash, RoleAdmin)
	require.NoError(t, err)

	login, err := svc.Login(context.Background(), "admin@technest.example", "s3cretpass", "", "")
	require.NoError(t, err)
	identity, err := svc.ParseAccessToken(login.AccessToken)
	require.NoError(t, err)
	require.Equal(t, RoleAdmin, identity.Role)
}
