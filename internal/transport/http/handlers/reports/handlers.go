package reportshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/reports"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	Overview(ctx context.Context) (reports.Overview, error)
	Summary(ctx context.Context, year, month int) (reports.Summary, error)
	DepartmentStats(ctx context.Context) ([]reports.DepartmentStat, error)
	PayrollTrend(ctx context.Context, months int) ([]reports.PayrollTrendPoint, error)
	AttendanceTrend(ctx context.Context) (reports.AttendanceTrend, error)
	EmployeeDashboard(ctx context.Context, employeeID string) (reports.EmployeeDashboard, error)
	Download(ctx context.Context, req reports.DownloadRequest) (string, string, []byte, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/me", h.handleEmployeeDashboard)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermReportsRead))
			r.Get("/overview", h.handleOverview)
			r.Get("/charts/department-stats", h.handleDepartments)
			r.Get("/charts/payroll-trend", h.handlePayrollTrend)
			r.Get("/charts/attendance-trend", h.handleAttendanceTrend)
			r.Get("/reports/summary", h.handleSummary)
			r.Post("/reports/download", h.handleDownload)
		})
	})
}

func (h *Handler) handleEmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	out, err := h.Service.EmployeeDashboard(r.Context(), user.EmployeeID)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.Overview(r.Context())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDepartments(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.DepartmentStats(r.Context())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"departmentStats": out}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayrollTrend(w http.ResponseWriter, r *http.Request) {
	months, err := shared.QueryInt(r, "months")
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	out, err := h.Service.PayrollTrend(r.Context(), months)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, map[string]any{"chartData": out}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAttendanceTrend(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.AttendanceTrend(r.Context())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, err := shared.QueryInt(r, "year")
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	month, err := shared.QueryInt(r, "month")
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	out, err := h.Service.Summary(r.Context(), year, month)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	var payload reports.DownloadRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	name, contentType, body, err := h.Service.Download(r.Context(), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Attachment(w, contentType, name, body)
}
