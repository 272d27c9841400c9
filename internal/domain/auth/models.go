package auth

import "time"

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// UserContext is what the auth middleware puts on the request context.
type UserContext struct {
	UserID     string
	Role       string
	EmployeeID string
	SessionID  string
}

func (u UserContext) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	EmployeeID   *string    `json:"employeeId,omitempty"`
	Status       string     `json:"status"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type NewUser struct {
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=8"`
	Role       string  `json:"role" validate:"required,oneof=admin user"`
	EmployeeID *string `json:"employeeId" validate:"omitempty,uuid"`
}

type LoginResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	User         User   `json:"user"`
}

// Session is one refresh token family. Only a hash of the token is stored,
// and each refresh replaces it.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
