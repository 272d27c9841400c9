package reports

import "hrms/internal/platform/apperr"

var (
	ErrNoEmployee    = apperr.Forbidden("no_employee_linked", "user is not linked to an employee")
	ErrUnknownReport = apperr.Validation("reportType", "unsupported report type")
)
