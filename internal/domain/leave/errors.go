package leave

import "hrms/internal/platform/apperr"

var (
	ErrDuplicateGrant      = apperr.Duplicate("duplicate_grant", "annual leave already granted for that year")
	ErrNoGrant             = apperr.NotFound("no_grant", "no annual leave granted for that year")
	ErrInsufficientBalance = apperr.New(apperr.ErrInsufficientBalance, "insufficient_balance", "not enough annual leave remaining")
	ErrRequestNotFound     = apperr.NotFound("leave_request_not_found", "leave request not found")
	ErrNotPending          = apperr.InvalidState("leave_request_not_pending", "only pending requests can be changed")
	ErrNotOwner            = apperr.Forbidden("leave_request_not_owner", "request belongs to another employee")
	ErrNoEmployee          = apperr.Forbidden("no_employee", "user has no linked employee")
)
