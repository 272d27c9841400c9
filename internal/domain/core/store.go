package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const departmentColumns = `d.id, d.name, d.code, d.description, d.parent_id, d.manager_id, d.is_active,
  (SELECT COUNT(1) FROM employees e WHERE e.department_id = d.id AND e.status = 'active'),
  d.created_at, d.updated_at`

func scanDepartment(row pgx.Row) (Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Code, &d.Description, &d.ParentID, &d.ManagerID, &d.IsActive, &d.EmployeeCount, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Department{}, ErrDepartmentNotFound
	}
	return d, err
}

func (s *Store) CreateDepartment(ctx context.Context, dept Department) (Department, error) {
	var id string
	if err := querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO departments (name, code, description, parent_id, manager_id)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, dept.Name, dept.Code, dept.Description, dept.ParentID, dept.ManagerID).Scan(&id); err != nil {
		return Department{}, err
	}
	return s.GetDepartment(ctx, id)
}

func (s *Store) UpdateDepartment(ctx context.Context, dept Department) (Department, error) {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, `
    UPDATE departments
    SET name = $2, code = $3, description = $4, parent_id = $5, manager_id = $6, updated_at = now()
    WHERE id = $1
  `, dept.ID, dept.Name, dept.Code, dept.Description, dept.ParentID, dept.ManagerID)
	if err != nil {
		return Department{}, err
	}
	if tag.RowsAffected() == 0 {
		return Department{}, ErrDepartmentNotFound
	}
	return s.GetDepartment(ctx, dept.ID)
}

func (s *Store) GetDepartment(ctx context.Context, id string) (Department, error) {
	return scanDepartment(querier.From(ctx, s.DB).QueryRow(ctx, "SELECT "+departmentColumns+" FROM departments d WHERE d.id = $1", id))
}

func (s *Store) ListDepartments(ctx context.Context, includeInactive bool) ([]Department, error) {
	query := "SELECT " + departmentColumns + " FROM departments d"
	if !includeInactive {
		query += " WHERE d.is_active"
	}
	rows, err := querier.From(ctx, s.DB).Query(ctx, query+" ORDER BY d.name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) DepartmentCodeExists(ctx context.Context, code, exceptID string) (bool, error) {
	var exists bool
	err := querier.From(ctx, s.DB).QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM departments WHERE code = $1 AND id::text <> $2)", code, exceptID).Scan(&exists)
	return exists, err
}

func (s *Store) SetDepartmentActive(ctx context.Context, id string, active bool) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, "UPDATE departments SET is_active = $2, updated_at = now() WHERE id = $1", id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

const employeeColumns = "id, employee_number, name, email, phone, position, department_id, hire_date, birth_date, salary_grade, status, created_at, updated_at"

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.EmployeeNumber, &e.Name, &e.Email, &e.Phone, &e.Position, &e.DepartmentID, &e.HireDate, &e.BirthDate, &e.SalaryGrade, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, err
}

func (s *Store) CreateEmployee(ctx context.Context, emp Employee) (Employee, error) {
	return scanEmployee(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO employees (employee_number, name, email, phone, position, department_id, hire_date, birth_date, salary_grade, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING `+employeeColumns,
		emp.EmployeeNumber, emp.Name, emp.Email, emp.Phone, emp.Position, emp.DepartmentID, emp.HireDate, emp.BirthDate, emp.SalaryGrade, emp.Status))
}

func (s *Store) UpdateEmployee(ctx context.Context, emp Employee) (Employee, error) {
	return scanEmployee(querier.From(ctx, s.DB).QueryRow(ctx, `
    UPDATE employees
    SET employee_number = $2, name = $3, email = $4, phone = $5, position = $6, department_id = $7,
        hire_date = $8, birth_date = $9, salary_grade = $10, status = $11, updated_at = now()
    WHERE id = $1
    RETURNING `+employeeColumns,
		emp.ID, emp.EmployeeNumber, emp.Name, emp.Email, emp.Phone, emp.Position, emp.DepartmentID, emp.HireDate, emp.BirthDate, emp.SalaryGrade, emp.Status))
}

func (s *Store) GetEmployee(ctx context.Context, id string) (Employee, error) {
	return scanEmployee(querier.From(ctx, s.DB).QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id))
}

func (s *Store) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, int, error) {
	where := " WHERE 1=1"
	var args []any
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		where += fmt.Sprintf(" AND department_id::text = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR employee_number ILIKE $%d OR email ILIKE $%d)", len(args), len(args), len(args))
	}

	var total int
	if err := querier.From(ctx, s.DB).QueryRow(ctx, "SELECT COUNT(1) FROM employees"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := querier.From(ctx, s.DB).Query(ctx, "SELECT "+employeeColumns+" FROM employees"+where+
		fmt.Sprintf(" ORDER BY employee_number LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (s *Store) EmployeeNumberExists(ctx context.Context, number, exceptID string) (bool, error) {
	var exists bool
	err := querier.From(ctx, s.DB).QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM employees WHERE employee_number = $1 AND id::text <> $2)", number, exceptID).Scan(&exists)
	return exists, err
}

func (s *Store) SetEmployeeStatus(ctx context.Context, id, status string) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, "UPDATE employees SET status = $2, updated_at = now() WHERE id = $1", id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) ListRoster(ctx context.Context) ([]RosterEntry, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT id, COALESCE(department_id::text, ''), position, status
    FROM employees
    ORDER BY employee_number
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RosterEntry
	for rows.Next() {
		var r RosterEntry
		if err := rows.Scan(&r.EmployeeID, &r.DepartmentID, &r.Position, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
