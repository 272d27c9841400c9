package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

type Service struct {
	Store      StoreAPI
	Secret     string
	TTL        time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func NewService(store StoreAPI, secret string, ttl, refreshTTL time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TTL: ttl, RefreshTTL: refreshTTL, Now: time.Now}
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return LoginResult{}, err
	}
	sessionID, err := s.Store.CreateSession(ctx, user.ID, HashToken(refresh), s.Now().Add(s.RefreshTTL))
	if err != nil {
		return LoginResult{}, err
	}
	result, err := s.issue(user, sessionID, refresh)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	return result, nil
}

// Refresh trades a refresh token for a new access token and a new refresh
// token. The presented token stops working once it has been used.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	oldHash := HashToken(refreshToken)
	session, err := s.Store.FindSession(ctx, oldHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !session.Active(s.Now()) {
		return LoginResult{}, ErrSessionInvalid
	}
	user, err := s.Store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrSessionInvalid
		}
		return LoginResult{}, err
	}
	if user.Status != UserStatusActive {
		return LoginResult{}, ErrSessionInvalid
	}

	next, err := newRefreshToken()
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.Store.RotateSession(ctx, session.ID, oldHash, HashToken(next), s.Now().Add(s.RefreshTTL)); err != nil {
		return LoginResult{}, err
	}
	return s.issue(user, session.ID, next)
}

// Logout revokes the caller's session. Access tokens minted for it are
// refused from then on.
func (s *Service) Logout(ctx context.Context, user UserContext) error {
	if user.SessionID == "" {
		return nil
	}
	return s.Store.RevokeSession(ctx, user.UserID, user.SessionID)
}

func (s *Service) SessionValid(ctx context.Context, userID, sessionID string) (bool, error) {
	return s.Store.SessionValid(ctx, userID, sessionID)
}

// ChangePassword checks the current password, stores the new hash and
// signs out every other session of the user.
func (s *Service) ChangePassword(ctx context.Context, caller UserContext, current, next string) error {
	user, err := s.Store.GetUser(ctx, caller.UserID)
	if err != nil {
		return err
	}
	if err := CheckPassword(user.PasswordHash, current); err != nil {
		return ErrWrongPassword
	}
	if current == next {
		return ErrPasswordReused
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.Store.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	return s.Store.RevokeOtherSessions(ctx, user.ID, caller.SessionID)
}

func (s *Service) issue(user User, sessionID, refresh string) (LoginResult, error) {
	claims := Claims{UserID: user.ID, Role: user.Role, SessionID: sessionID}
	if user.EmployeeID != nil {
		claims.EmployeeID = *user.EmployeeID
	}
	token, err := GenerateToken(s.Secret, claims, s.TTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    int(s.TTL.Seconds()),
		User:         user,
	}, nil
}

func (s *Service) CreateUser(ctx context.Context, payload NewUser) (User, error) {
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	taken, err := s.Store.EmailExists(ctx, email)
	if err != nil {
		return User{}, err
	}
	if taken {
		return User{}, ErrEmailTaken
	}
	if payload.EmployeeID != nil {
		linked, err := s.Store.EmployeeLinked(ctx, *payload.EmployeeID)
		if err != nil {
			return User{}, err
		}
		if linked {
			return User{}, ErrEmployeeLinked
		}
	}
	hash, err := HashPassword(payload.Password)
	if err != nil {
		return User{}, err
	}
	return s.Store.CreateUser(ctx, User{
		Email:        email,
		PasswordHash: hash,
		Role:         payload.Role,
		EmployeeID:   payload.EmployeeID,
		Status:       UserStatusActive,
	})
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.Store.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	return s.Store.ListUsers(ctx, limit, offset)
}
