package corehandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	CreateDepartment(ctx context.Context, actorID string, in core.DepartmentInput) (core.Department, error)
	UpdateDepartment(ctx context.Context, actorID, id string, in core.DepartmentInput) (core.Department, error)
	GetDepartment(ctx context.Context, id string) (core.Department, error)
	ListDepartments(ctx context.Context, includeInactive bool) ([]core.Department, error)
	DeactivateDepartment(ctx context.Context, actorID, id string) error
	DepartmentTree(ctx context.Context) ([]core.DepartmentNode, error)
	CreateEmployee(ctx context.Context, actorID string, in core.EmployeeInput) (core.Employee, error)
	UpdateEmployee(ctx context.Context, actorID, id string, in core.EmployeeInput) (core.Employee, error)
	GetEmployee(ctx context.Context, id string) (core.Employee, error)
	ListEmployees(ctx context.Context, filter core.EmployeeFilter) ([]core.Employee, int, error)
	TerminateEmployee(ctx context.Context, actorID, id string) error
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Post("/", h.handleCreateEmployee)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/", h.handleGetEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Put("/", h.handleUpdateEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Post("/terminate", h.handleTerminateEmployee)
		})
	})
	r.Route("/departments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermOrgRead)).Get("/", h.handleListDepartments)
		r.With(middleware.RequirePermission(auth.PermOrgRead)).Get("/tree", h.handleDepartmentTree)
		r.With(middleware.RequirePermission(auth.PermOrgWrite)).Post("/", h.handleCreateDepartment)
		r.Route("/{departmentID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermOrgRead)).Get("/", h.handleGetDepartment)
			r.With(middleware.RequirePermission(auth.PermOrgWrite)).Put("/", h.handleUpdateDepartment)
			r.With(middleware.RequirePermission(auth.PermOrgWrite)).Delete("/", h.handleDeactivateDepartment)
		})
	})
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	query := r.URL.Query()
	employees, total, err := h.Service.ListEmployees(r.Context(), core.EmployeeFilter{
		DepartmentID: query.Get("departmentId"),
		Status:       query.Get("status"),
		Search:       strings.TrimSpace(query.Get("search")),
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	for i := range employees {
		core.FilterEmployeeFields(&employees[i], user)
	}
	shared.SetTotal(w, total)
	api.Success(w, map[string]any{"employees": employees, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload core.EmployeeInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.CreateEmployee(r.Context(), user.UserID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	core.FilterEmployeeFields(&emp, user)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload core.EmployeeInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	emp, err := h.Service.UpdateEmployee(r.Context(), user.UserID, chi.URLParam(r, "employeeID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleTerminateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.TerminateEmployee(r.Context(), user.UserID, chi.URLParam(r, "employeeID")); err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": core.EmployeeStatusTerminated}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Service.ListDepartments(r.Context(), shared.QueryBool(r, "includeInactive"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDepartmentTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.Service.DepartmentTree(r.Context())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, tree, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload core.DepartmentInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	dept, err := h.Service.CreateDepartment(r.Context(), user.UserID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, dept, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetDepartment(w http.ResponseWriter, r *http.Request) {
	dept, err := h.Service.GetDepartment(r.Context(), chi.URLParam(r, "departmentID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, dept, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload core.DepartmentInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	dept, err := h.Service.UpdateDepartment(r.Context(), user.UserID, chi.URLParam(r, "departmentID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, dept, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivateDepartment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeactivateDepartment(r.Context(), user.UserID, chi.URLParam(r, "departmentID")); err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.NoContent(w)
}
