package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/platform/apperr"
)

type memorySession struct {
	Session
	hash string
}

type memoryStore struct {
	users    []User
	sessions []*memorySession
}

func (m *memoryStore) FindActiveUserByEmail(_ context.Context, email string) (User, error) {
	for _, u := range m.users {
		if u.Email == email && u.Status == UserStatusActive {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryStore) GetUser(_ context.Context, id string) (User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *memoryStore) EmailExists(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) EmployeeLinked(_ context.Context, employeeID string) (bool, error) {
	for _, u := range m.users {
		if u.EmployeeID != nil && *u.EmployeeID == employeeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) CreateUser(_ context.Context, user User) (User, error) {
	user.ID = "u" + string(rune('0'+len(m.users)+1))
	user.CreatedAt = time.Now()
	m.users = append(m.users, user)
	return user, nil
}

func (m *memoryStore) ListUsers(_ context.Context, _, _ int) ([]User, error) {
	return m.users, nil
}

func (m *memoryStore) UpdateLastLogin(_ context.Context, _ string) error {
	return errors.New("last login column unavailable")
}

func (m *memoryStore) UpdatePassword(_ context.Context, userID, hash string) error {
	for i := range m.users {
		if m.users[i].ID == userID {
			m.users[i].PasswordHash = hash
			return nil
		}
	}
	return ErrUserNotFound
}

func (m *memoryStore) CreateSession(_ context.Context, userID, hash string, expires time.Time) (string, error) {
	id := "s" + string(rune('0'+len(m.sessions)+1))
	m.sessions = append(m.sessions, &memorySession{Session: Session{ID: id, UserID: userID, ExpiresAt: expires}, hash: hash})
	return id, nil
}

func (m *memoryStore) FindSession(_ context.Context, hash string) (Session, error) {
	for _, s := range m.sessions {
		if s.hash == hash {
			return s.Session, nil
		}
	}
	return Session{}, ErrSessionInvalid
}

func (m *memoryStore) RotateSession(_ context.Context, id, oldHash, newHash string, expires time.Time) error {
	for _, s := range m.sessions {
		if s.ID == id && s.hash == oldHash && s.RevokedAt == nil {
			s.hash, s.ExpiresAt = newHash, expires
			return nil
		}
	}
	return ErrSessionInvalid
}

func (m *memoryStore) RevokeSession(_ context.Context, userID, id string) error {
	now := time.Now()
	for _, s := range m.sessions {
		if s.UserID == userID && s.ID == id {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (m *memoryStore) RevokeOtherSessions(_ context.Context, userID, keep string) error {
	now := time.Now()
	for _, s := range m.sessions {
		if s.UserID == userID && s.ID != keep && s.RevokedAt == nil {
			s.RevokedAt = &now
		}
	}
	return nil
}

func (m *memoryStore) SessionValid(_ context.Context, userID, id string) (bool, error) {
	for _, s := range m.sessions {
		if s.UserID == userID && s.ID == id {
			return s.Active(time.Now()), nil
		}
	}
	return false, nil
}

func newTestService(t *testing.T) (*Service, *memoryStore) {
	t.Helper()
	store := &memoryStore{}
	svc := NewService(store, "secret", time.Hour, 24*time.Hour)
	_, err := svc.CreateUser(context.Background(), NewUser{Email: "a@example.com", Password: "Password1", Role: RoleAdmin})
	require.NoError(t, err)
	return svc, store
}

func callerOf(t *testing.T, result LoginResult) UserContext {
	t.Helper()
	claims, err := ParseToken("secret", result.Token)
	require.NoError(t, err)
	return UserContext{UserID: claims.UserID, Role: claims.Role, SessionID: claims.SessionID}
}

func TestLoginIssuesParsableToken(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memoryStore{}, "secret", time.Hour, 24*time.Hour)
	employeeID := "e1"
	_, err := svc.CreateUser(ctx, NewUser{Email: " Ada@Example.com ", Password: "Password1", Role: RoleUser, EmployeeID: &employeeID})
	require.NoError(t, err)

	result, err := svc.Login(ctx, "ada@example.com", "Password1")
	require.NoError(t, err, "last login failure must not fail the login")

	claims, err := ParseToken("secret", result.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, claims.Role)
	assert.Equal(t, "e1", claims.EmployeeID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memoryStore{}, "secret", time.Hour, 24*time.Hour)
	_, err := svc.CreateUser(ctx, NewUser{Email: "a@example.com", Password: "Password1", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "missing@example.com", "Password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&memoryStore{}, "secret", time.Hour, 24*time.Hour)
	employeeID := "e1"
	_, err := svc.CreateUser(ctx, NewUser{Email: "a@example.com", Password: "Password1", Role: RoleUser, EmployeeID: &employeeID})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, NewUser{Email: "A@example.com", Password: "Password1", Role: RoleUser})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)

	_, err = svc.CreateUser(ctx, NewUser{Email: "b@example.com", Password: "Password1", Role: RoleUser, EmployeeID: &employeeID})
	assert.ErrorIs(t, err, ErrEmployeeLinked)
}

func TestLoginStartsSession(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	result, err := svc.Login(ctx, "a@example.com", "Password1")
	require.NoError(t, err)
	assert.NotEmpty(t, result.RefreshToken)
	assert.Equal(t, 3600, result.ExpiresIn)
	require.Len(t, store.sessions, 1)
	assert.Equal(t, HashToken(result.RefreshToken), store.sessions[0].hash, "only the hash is stored")

	caller := callerOf(t, result)
	assert.Equal(t, store.sessions[0].ID, caller.SessionID)
	valid, err := svc.SessionValid(ctx, caller.UserID, caller.SessionID)
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestRefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	login, err := svc.Login(ctx, "a@example.com", "Password1")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, callerOf(t, login).SessionID, callerOf(t, refreshed).SessionID)

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionInvalid, "a used refresh token is spent")
	_, err = svc.Refresh(ctx, "made-up")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	_, err = svc.Refresh(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsExpiredAndDisabled(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)
	login, err := svc.Login(ctx, "a@example.com", "Password1")
	require.NoError(t, err)

	svc.Now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	svc.Now = time.Now
	store.users[0].Status = UserStatusDisabled
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	login, err := svc.Login(ctx, "a@example.com", "Password1")
	require.NoError(t, err)
	caller := callerOf(t, login)

	require.NoError(t, svc.Logout(ctx, caller))
	valid, err := svc.SessionValid(ctx, caller.UserID, caller.SessionID)
	require.NoError(t, err)
	assert.False(t, valid)
	_, err = svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	assert.NoError(t, svc.Logout(ctx, UserContext{UserID: caller.UserID}), "no session to revoke")
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	here, err := svc.Login(ctx, "a@example.com", "Password1")
	require.NoError(t, err)
	elsewhere, err := svc.Login(ctx, "a@example.com", "Password1")
	require.NoError(t, err)
	caller := callerOf(t, here)

	assert.ErrorIs(t, svc.ChangePassword(ctx, caller, "wrong", "Password2"), ErrWrongPassword)
	assert.ErrorIs(t, svc.ChangePassword(ctx, caller, "Password1", "Password1"), ErrPasswordReused)

	require.NoError(t, svc.ChangePassword(ctx, caller, "Password1", "Password2"))
	_, err = svc.Login(ctx, "a@example.com", "Password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "a@example.com", "Password2")
	require.NoError(t, err)

	valid, err := svc.SessionValid(ctx, caller.UserID, caller.SessionID)
	require.NoError(t, err)
	assert.True(t, valid, "the session that changed the password stays")
	other := callerOf(t, elsewhere)
	valid, err = svc.SessionValid(ctx, other.UserID, other.SessionID)
	require.NoError(t, err)
	assert.False(t, valid, "other sessions are signed out")
}
