package core

const (
	EmployeeStatusActive     = "active"
	EmployeeStatusInactive   = "inactive"
	EmployeeStatusTerminated = "terminated"
)

var EmployeeStatuses = []string{EmployeeStatusActive, EmployeeStatusInactive, EmployeeStatusTerminated}
