package leavehandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/leave"
	"hrms/internal/platform/apperr"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	GrantAnnualLeave(ctx context.Context, actorID string, in leave.GrantInput) (leave.Grant, error)
	RecordUsage(ctx context.Context, actorID string, in leave.UsageInput) (leave.Usage, error)
	Balance(ctx context.Context, employeeID string, year int) (leave.Balance, error)
	ListGrants(ctx context.Context, employeeID string, year int) ([]leave.Grant, error)
	ListUsages(ctx context.Context, employeeID string, year int) ([]leave.Usage, error)
	CreateRequest(ctx context.Context, user auth.UserContext, in leave.RequestInput) (leave.Request, error)
	GetRequest(ctx context.Context, user auth.UserContext, id string) (leave.Request, error)
	ListRequests(ctx context.Context, user auth.UserContext, filter leave.RequestFilter) ([]leave.Request, int, error)
	UpdateRequest(ctx context.Context, user auth.UserContext, id string, in leave.RequestInput) (leave.Request, error)
	ApproveRequest(ctx context.Context, approverID, id, note string) (leave.Request, error)
	RejectRequest(ctx context.Context, approverID, id, reason string) (leave.Request, error)
	DeleteRequest(ctx context.Context, user auth.UserContext, id string) error
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

type approveRequest struct {
	Note string `json:"note" validate:"max=500"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/grants", h.handleListGrants)
		r.With(middleware.RequirePermission(auth.PermLeaveGrant)).Post("/grants", h.handleGrant)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/usages", h.handleListUsages)
		r.With(middleware.RequirePermission(auth.PermLeaveGrant)).Post("/usages", h.handleRecordUsage)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/balance", h.handleBalance)

		r.Route("/requests", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/", h.handleListRequests)
			r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/", h.handleCreateRequest)
			r.Route("/{requestID}", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/", h.handleGetRequest)
				r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Put("/", h.handleUpdateRequest)
				r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Delete("/", h.handleDeleteRequest)
				r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/approve", h.handleApprove)
				r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/reject", h.handleReject)
			})
		})
	})
}

// ledgerScope resolves the employee and year for ledger reads. Users are
// pinned to their own employee.
func ledgerScope(r *http.Request) (string, int, error) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := r.URL.Query().Get("employeeId")
	if !user.IsAdmin() {
		if user.EmployeeID == "" {
			return "", 0, leave.ErrNoEmployee
		}
		employeeID = user.EmployeeID
	}
	if employeeID == "" {
		return "", 0, apperr.Validation("employeeId", "is required")
	}
	year, err := shared.QueryInt(r, "year")
	if err != nil {
		return "", 0, err
	}
	if year == 0 {
		year = time.Now().Year()
	}
	return employeeID, year, nil
}

func (h *Handler) handleListGrants(w http.ResponseWriter, r *http.Request) {
	employeeID, year, err := ledgerScope(r)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	grants, err := h.Service.ListGrants(r.Context(), employeeID, year)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, grants, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	var payload leave.GrantInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	grant, err := h.Service.GrantAnnualLeave(r.Context(), user.UserID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, grant, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsages(w http.ResponseWriter, r *http.Request) {
	employeeID, year, err := ledgerScope(r)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	usages, err := h.Service.ListUsages(r.Context(), employeeID, year)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, usages, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecordUsage(w http.ResponseWriter, r *http.Request) {
	var payload leave.UsageInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	usage, err := h.Service.RecordUsage(r.Context(), user.UserID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, usage, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	employeeID, year, err := ledgerScope(r)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	balance, err := h.Service.Balance(r.Context(), employeeID, year)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, balance, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	query := r.URL.Query()
	requests, total, err := h.Service.ListRequests(r.Context(), user, leave.RequestFilter{
		EmployeeID: query.Get("employeeId"),
		Status:     query.Get("status"),
		LeaveType:  query.Get("leaveType"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, map[string]any{"requests": requests, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var payload leave.RequestInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	request, err := h.Service.CreateRequest(r.Context(), user, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, request, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	request, err := h.Service.GetRequest(r.Context(), user, chi.URLParam(r, "requestID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, request, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	var payload leave.RequestInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	request, err := h.Service.UpdateRequest(r.Context(), user, chi.URLParam(r, "requestID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, request, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteRequest(r.Context(), user, chi.URLParam(r, "requestID")); err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	var payload approveRequest
	if r.ContentLength != 0 && !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	request, err := h.Service.ApproveRequest(r.Context(), user.UserID, chi.URLParam(r, "requestID"), payload.Note)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, request, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var payload rejectRequest
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	request, err := h.Service.RejectRequest(r.Context(), user.UserID, chi.URLParam(r, "requestID"), payload.Reason)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, request, middleware.GetRequestID(r.Context()))
}
