package payroll

import "hrms/internal/platform/apperr"

var (
	ErrRecordNotFound  = apperr.NotFound("payroll_record_not_found", "payroll record not found")
	ErrDuplicateRecord = apperr.Duplicate("payroll_record_exists", "a payroll record already exists for this employee and period")
	ErrRecordFinalized = apperr.Immutable("payroll_record_finalized", "payroll record is finalized")
	ErrNotOwner        = apperr.Forbidden("payroll_not_owner", "payroll record belongs to another employee")
	ErrNoEmployee      = apperr.Forbidden("no_employee_linked", "user is not linked to an employee")
)
