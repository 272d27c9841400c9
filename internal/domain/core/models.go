package core

import "time"

type Employee struct {
	ID             string     `json:"id"`
	EmployeeNumber string     `json:"employeeNumber"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Position       string     `json:"position"`
	DepartmentID   *string    `json:"departmentId,omitempty"`
	HireDate       time.Time  `json:"hireDate"`
	BirthDate      *time.Time `json:"birthDate,omitempty"`
	SalaryGrade    string     `json:"salaryGrade,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type EmployeeInput struct {
	EmployeeNumber string  `json:"employeeNumber" validate:"required,max=20"`
	Name           string  `json:"name" validate:"required,max=100"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          string  `json:"phone" validate:"max=20"`
	Position       string  `json:"position" validate:"max=100"`
	DepartmentID   *string `json:"departmentId" validate:"omitempty,uuid"`
	HireDate       string  `json:"hireDate" validate:"required,datetime=2006-01-02"`
	BirthDate      string  `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	SalaryGrade    string  `json:"salaryGrade" validate:"max=10"`
	Status         string  `json:"status" validate:"omitempty,oneof=active inactive terminated"`
}

type EmployeeFilter struct {
	DepartmentID string
	Status       string
	Search       string
	Limit        int
	Offset       int
}

type Department struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	Description   string    `json:"description"`
	ParentID      *string   `json:"parentId,omitempty"`
	ManagerID     *string   `json:"managerId,omitempty"`
	IsActive      bool      `json:"isActive"`
	EmployeeCount int       `json:"employeeCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type DepartmentInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Code        string  `json:"code" validate:"required,max=20"`
	Description string  `json:"description"`
	ParentID    *string `json:"parentId" validate:"omitempty,uuid"`
	ManagerID   *string `json:"managerId" validate:"omitempty,uuid"`
}

type DepartmentNode struct {
	Department
	Children []DepartmentNode `json:"children"`
}

// RosterEntry is the slice of an employee the bonus engine needs.
type RosterEntry struct {
	EmployeeID   string
	DepartmentID string
	Position     string
	Status       string
}
