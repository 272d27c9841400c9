package auth

import "hrms/internal/platform/apperr"

var (
	ErrInvalidCredentials = apperr.New(apperr.ErrValidation, "invalid_credentials", "invalid credentials")
	ErrEmailTaken         = apperr.Duplicate("email_taken", "a user with this email already exists")
	ErrEmployeeLinked     = apperr.Duplicate("employee_linked", "employee is already linked to a user")
	ErrUserNotFound       = apperr.NotFound("user_not_found", "user not found")

	// ErrSessionInvalid covers unknown, expired, revoked and already rotated refresh tokens.
	ErrSessionInvalid = apperr.New(apperr.ErrValidation, "session_invalid", "session expired or revoked")
	ErrWrongPassword  = apperr.New(apperr.ErrValidation, "invalid_current_password", "current password is incorrect")
	ErrPasswordReused = apperr.Validation("newPassword", "must differ from the current password")
)
