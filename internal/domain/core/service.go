package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"hrms/internal/domain/audit"
	"hrms/internal/platform/apperr"
)

const dateLayout = "2006-01-02"

type Service struct {
	Store StoreAPI
	Audit audit.Sink
}

func NewService(store StoreAPI, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Service{Store: store, Audit: sink}
}

func (s *Service) CreateDepartment(ctx context.Context, actorID string, in DepartmentInput) (Department, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	taken, err := s.Store.DepartmentCodeExists(ctx, code, "")
	if err != nil {
		return Department{}, err
	}
	if taken {
		return Department{}, ErrDepartmentCodeTaken
	}
	if in.ParentID != nil {
		if _, err := s.Store.GetDepartment(ctx, *in.ParentID); err != nil {
			return Department{}, err
		}
	}
	dept, err := s.Store.CreateDepartment(ctx, Department{
		Name:        strings.TrimSpace(in.Name),
		Code:        code,
		Description: in.Description,
		ParentID:    in.ParentID,
		ManagerID:   in.ManagerID,
		IsActive:    true,
	})
	if err != nil {
		return Department{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "department", EntityID: dept.ID, Message: "department created", After: dept})
	return dept, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, actorID, id string, in DepartmentInput) (Department, error) {
	current, err := s.Store.GetDepartment(ctx, id)
	if err != nil {
		return Department{}, err
	}
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	taken, err := s.Store.DepartmentCodeExists(ctx, code, id)
	if err != nil {
		return Department{}, err
	}
	if taken {
		return Department{}, ErrDepartmentCodeTaken
	}
	if in.ParentID != nil {
		all, err := s.Store.ListDepartments(ctx, true)
		if err != nil {
			return Department{}, err
		}
		if createsCycle(all, id, *in.ParentID) {
			return Department{}, ErrDepartmentParentCycle
		}
	}

	next := current
	next.Name = strings.TrimSpace(in.Name)
	next.Code = code
	next.Description = in.Description
	next.ParentID = in.ParentID
	next.ManagerID = in.ManagerID
	updated, err := s.Store.UpdateDepartment(ctx, next)
	if err != nil {
		return Department{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "department", EntityID: id, Message: "department updated", Before: current, After: updated})
	return updated, nil
}

// createsCycle reports whether making parentID the parent of id would loop.
func createsCycle(all []Department, id, parentID string) bool {
	parents := make(map[string]string, len(all))
	for _, d := range all {
		if d.ParentID != nil {
			parents[d.ID] = *d.ParentID
		}
	}
	seen := map[string]bool{}
	for cur := parentID; cur != ""; cur = parents[cur] {
		if cur == id || seen[cur] {
			return true
		}
		seen[cur] = true
	}
	return false
}

func (s *Service) GetDepartment(ctx context.Context, id string) (Department, error) {
	return s.Store.GetDepartment(ctx, id)
}

func (s *Service) ListDepartments(ctx context.Context, includeInactive bool) ([]Department, error) {
	return s.Store.ListDepartments(ctx, includeInactive)
}

// DeactivateDepartment is a soft delete; departments are never removed.
func (s *Service) DeactivateDepartment(ctx context.Context, actorID, id string) error {
	if err := s.Store.SetDepartmentActive(ctx, id, false); err != nil {
		return err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionDelete, EntityType: "department", EntityID: id, Message: "department deactivated"})
	return nil
}

func (s *Service) DepartmentTree(ctx context.Context) ([]DepartmentNode, error) {
	all, err := s.Store.ListDepartments(ctx, false)
	if err != nil {
		return nil, err
	}
	return BuildTree(all), nil
}

// BuildTree nests departments under their parents. Departments whose parent
// is missing from the input become roots.
func BuildTree(all []Department) []DepartmentNode {
	byParent := map[string][]Department{}
	known := make(map[string]bool, len(all))
	for _, d := range all {
		known[d.ID] = true
	}
	for _, d := range all {
		parent := ""
		if d.ParentID != nil && known[*d.ParentID] {
			parent = *d.ParentID
		}
		byParent[parent] = append(byParent[parent], d)
	}
	var build func(parent string) []DepartmentNode
	build = func(parent string) []DepartmentNode {
		children := byParent[parent]
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
		nodes := make([]DepartmentNode, 0, len(children))
		for _, d := range children {
			nodes = append(nodes, DepartmentNode{Department: d, Children: build(d.ID)})
		}
		return nodes
	}
	return build("")
}

func (s *Service) CreateEmployee(ctx context.Context, actorID string, in EmployeeInput) (Employee, error) {
	emp, err := s.employeeFromInput(ctx, "", in)
	if err != nil {
		return Employee{}, err
	}
	if emp.Status == "" {
		emp.Status = EmployeeStatusActive
	}
	created, err := s.Store.CreateEmployee(ctx, emp)
	if err != nil {
		return Employee{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "employee", EntityID: created.ID, Message: "employee created", After: created})
	return created, nil
}

func (s *Service) UpdateEmployee(ctx context.Context, actorID, id string, in EmployeeInput) (Employee, error) {
	current, err := s.Store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	emp, err := s.employeeFromInput(ctx, id, in)
	if err != nil {
		return Employee{}, err
	}
	emp.ID = id
	if emp.Status == "" {
		emp.Status = current.Status
	}
	updated, err := s.Store.UpdateEmployee(ctx, emp)
	if err != nil {
		return Employee{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "employee", EntityID: id, Message: "employee updated", Before: current, After: updated})
	return updated, nil
}

func (s *Service) employeeFromInput(ctx context.Context, id string, in EmployeeInput) (Employee, error) {
	number := strings.TrimSpace(in.EmployeeNumber)
	taken, err := s.Store.EmployeeNumberExists(ctx, number, id)
	if err != nil {
		return Employee{}, err
	}
	if taken {
		return Employee{}, ErrEmployeeNumberTaken
	}
	hire, err := time.Parse(dateLayout, in.HireDate)
	if err != nil {
		return Employee{}, apperr.Validation("hireDate", "must be YYYY-MM-DD")
	}
	var birth *time.Time
	if in.BirthDate != "" {
		parsed, err := time.Parse(dateLayout, in.BirthDate)
		if err != nil {
			return Employee{}, apperr.Validation("birthDate", "must be YYYY-MM-DD")
		}
		if !parsed.Before(hire) {
			return Employee{}, apperr.Validation("birthDate", "must be before hireDate")
		}
		birth = &parsed
	}
	if in.DepartmentID != nil {
		if _, err := s.Store.GetDepartment(ctx, *in.DepartmentID); err != nil {
			return Employee{}, err
		}
	}
	return Employee{
		EmployeeNumber: number,
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:          in.Phone,
		Position:       in.Position,
		DepartmentID:   in.DepartmentID,
		HireDate:       hire,
		BirthDate:      birth,
		SalaryGrade:    in.SalaryGrade,
		Status:         in.Status,
	}, nil
}

func (s *Service) GetEmployee(ctx context.Context, id string) (Employee, error) {
	return s.Store.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, int, error) {
	return s.Store.ListEmployees(ctx, filter)
}

// TerminateEmployee keeps the row so leave, evaluation and payroll history
// stay attached to it.
func (s *Service) TerminateEmployee(ctx context.Context, actorID, id string) error {
	emp, err := s.Store.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	if emp.Status == EmployeeStatusTerminated {
		return ErrEmployeeTerminated
	}
	if err := s.Store.SetEmployeeStatus(ctx, id, EmployeeStatusTerminated); err != nil {
		return err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionDelete, EntityType: "employee", EntityID: id, Message: "employee terminated", Before: emp.Status, After: EmployeeStatusTerminated})
	return nil
}

func (s *Service) Roster(ctx context.Context) ([]RosterEntry, error) {
	return s.Store.ListRoster(ctx)
}
