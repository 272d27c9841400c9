package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	FindActiveUserByEmail(ctx context.Context, email string) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	EmployeeLinked(ctx context.Context, employeeID string) (bool, error)
	CreateUser(ctx context.Context, user User) (User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, hash string) error

	CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) (string, error)
	FindSession(ctx context.Context, refreshTokenHash string) (Session, error)
	RotateSession(ctx context.Context, sessionID, oldHash, newHash string, expires time.Time) error
	RevokeSession(ctx context.Context, userID, sessionID string) error
	RevokeOtherSessions(ctx context.Context, userID, keepSessionID string) error
	SessionValid(ctx context.Context, userID, sessionID string) (bool, error)
}
