package core

import "context"

type StoreAPI interface {
	CreateDepartment(ctx context.Context, dept Department) (Department, error)
	UpdateDepartment(ctx context.Context, dept Department) (Department, error)
	GetDepartment(ctx context.Context, id string) (Department, error)
	ListDepartments(ctx context.Context, includeInactive bool) ([]Department, error)
	DepartmentCodeExists(ctx context.Context, code, exceptID string) (bool, error)
	SetDepartmentActive(ctx context.Context, id string, active bool) error

	CreateEmployee(ctx context.Context, emp Employee) (Employee, error)
	UpdateEmployee(ctx context.Context, emp Employee) (Employee, error)
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, int, error)
	EmployeeNumberExists(ctx context.Context, number, exceptID string) (bool, error)
	SetEmployeeStatus(ctx context.Context, id, status string) error
	ListRoster(ctx context.Context) ([]RosterEntry, error)
}
