package attendance

import "hrms/internal/platform/apperr"

var (
	ErrRecordNotFound    = apperr.NotFound("attendance_not_found", "attendance record not found")
	ErrDuplicateRecord   = apperr.Duplicate("attendance_exists", "attendance record already exists for that date")
	ErrAlreadyCheckedIn  = apperr.InvalidState("already_checked_in", "already checked in today")
	ErrNotCheckedIn      = apperr.InvalidState("not_checked_in", "no check-in recorded today")
	ErrAlreadyCheckedOut = apperr.InvalidState("already_checked_out", "already checked out today")
	ErrNoEmployeeLinked  = apperr.Forbidden("no_employee", "user has no linked employee")
)
