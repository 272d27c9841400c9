package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = "id, email, password_hash, role, employee_id, status, last_login, created_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.EmployeeID, &u.Status, &u.LastLogin, &u.CreatedAt)
	return u, err
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1 AND status = $2", email, UserStatusActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	return exists, err
}

func (s *Store) EmployeeLinked(ctx context.Context, employeeID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE employee_id = $1)", employeeID).Scan(&exists)
	return exists, err
}

func (s *Store) CreateUser(ctx context.Context, user User) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, role, employee_id, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+userColumns,
		user.Email, user.PasswordHash, user.Role, user.EmployeeID, user.Status))
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := s.DB.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdatePassword(ctx context.Context, userID, hash string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", hash, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO sessions (user_id, refresh_token, expires_at)
    VALUES ($1,$2,$3)
    RETURNING id
  `, userID, refreshTokenHash, expires).Scan(&id)
	return id, err
}

func (s *Store) FindSession(ctx context.Context, refreshTokenHash string) (Session, error) {
	var out Session
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, expires_at, revoked_at
    FROM sessions
    WHERE refresh_token = $1
  `, refreshTokenHash).Scan(&out.ID, &out.UserID, &out.ExpiresAt, &out.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionInvalid
	}
	return out, err
}

// RotateSession swaps the refresh token only while the old one is still
// current, so two concurrent refreshes cannot both succeed.
func (s *Store) RotateSession(ctx context.Context, sessionID, oldHash, newHash string, expires time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE sessions
    SET refresh_token = $1, expires_at = $2, rotated_at = now()
    WHERE id = $3 AND refresh_token = $4 AND revoked_at IS NULL AND expires_at > now()
  `, newHash, expires, sessionID, oldHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionInvalid
	}
	return nil
}

func (s *Store) RevokeSession(ctx context.Context, userID, sessionID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND id = $2 AND revoked_at IS NULL", userID, sessionID)
	return err
}

func (s *Store) RevokeOtherSessions(ctx context.Context, userID, keepSessionID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE sessions SET revoked_at = now()
    WHERE user_id = $1 AND revoked_at IS NULL AND ($2 = '' OR id::text <> $2)
  `, userID, keepSessionID)
	return err
}

func (s *Store) SessionValid(ctx context.Context, userID, sessionID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM sessions
    WHERE user_id = $1 AND id = $2 AND expires_at > now() AND revoked_at IS NULL
  `, userID, sessionID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
