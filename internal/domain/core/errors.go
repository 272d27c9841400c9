package core

import "hrms/internal/platform/apperr"

var (
	ErrEmployeeNotFound      = apperr.NotFound("employee_not_found", "employee not found")
	ErrDepartmentNotFound    = apperr.NotFound("department_not_found", "department not found")
	ErrEmployeeNumberTaken   = apperr.Duplicate("employee_number_taken", "employee number already exists")
	ErrDepartmentCodeTaken   = apperr.Duplicate("department_code_taken", "department code already exists")
	ErrEmployeeTerminated    = apperr.InvalidState("employee_terminated", "employee is already terminated")
	ErrDepartmentParentCycle = apperr.Validation("parentId", "department cannot be its own ancestor")
)
