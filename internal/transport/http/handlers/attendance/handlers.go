package attendancehandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/auth"
	"hrms/internal/platform/apperr"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	CheckIn(ctx context.Context, actorID, employeeID string) (attendance.Record, error)
	CheckOut(ctx context.Context, actorID, employeeID string) (attendance.Record, error)
	Today(ctx context.Context, employeeID string) (*attendance.Record, error)
	Create(ctx context.Context, actorID string, in attendance.RecordInput) (attendance.Record, error)
	Update(ctx context.Context, actorID, id string, in attendance.RecordInput) (attendance.Record, error)
	Delete(ctx context.Context, actorID, id string) error
	Get(ctx context.Context, id string) (attendance.Record, error)
	List(ctx context.Context, filter attendance.Filter) ([]attendance.Record, int, error)
	MonthlySummary(ctx context.Context, employeeID string, year, month int) (attendance.MonthlySummary, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite)).Post("/check-in", h.handleCheckIn)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite)).Post("/check-out", h.handleCheckOut)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead)).Get("/today", h.handleToday)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead)).Get("/summary", h.handleSummary)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAttendanceManage)).Post("/", h.handleCreate)
		r.Route("/{recordID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermAttendanceRead)).Get("/", h.handleGet)
			r.With(middleware.RequirePermission(auth.PermAttendanceManage)).Put("/", h.handleUpdate)
			r.With(middleware.RequirePermission(auth.PermAttendanceManage)).Delete("/", h.handleDelete)
		})
	})
}

// scopedEmployee returns the employee a read is limited to. Admins may ask
// for anyone; users always get their own record.
func scopedEmployee(user auth.UserContext, requested string) (string, error) {
	if user.IsAdmin() {
		return requested, nil
	}
	if user.EmployeeID == "" {
		return "", attendance.ErrNoEmployeeLinked
	}
	return user.EmployeeID, nil
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rec, err := h.Service.CheckIn(r.Context(), user.UserID, user.EmployeeID)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rec, err := h.Service.CheckOut(r.Context(), user.UserID, user.EmployeeID)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		shared.FailError(w, r, attendance.ErrNoEmployeeLinked)
		return
	}
	rec, err := h.Service.Today(r.Context(), user.EmployeeID)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID, err := scopedEmployee(user, r.URL.Query().Get("employeeId"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	from, err := shared.QueryDate(r, "from")
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	to, err := shared.QueryDate(r, "to")
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	page := shared.ParsePagination(r, 50, 500)
	records, total, err := h.Service.List(r.Context(), attendance.Filter{
		EmployeeID: employeeID,
		Status:     r.URL.Query().Get("status"),
		From:       from,
		To:         to,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, map[string]any{"records": records, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID, err := scopedEmployee(user, r.URL.Query().Get("employeeId"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	if employeeID == "" {
		shared.FailError(w, r, apperr.Validation("employeeId", "is required"))
		return
	}
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
	now := time.Now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	summary, err := h.Service.MonthlySummary(r.Context(), employeeID, year, month)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	rec, err := h.Service.Get(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	if !user.IsAdmin() && rec.EmployeeID != user.EmployeeID {
		shared.FailError(w, r, attendance.ErrRecordNotFound)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload attendance.RecordInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	rec, err := h.Service.Create(r.Context(), user.UserID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload attendance.RecordInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	rec, err := h.Service.Update(r.Context(), user.UserID, chi.URLParam(r, "recordID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, rec, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.Delete(r.Context(), user.UserID, chi.URLParam(r, "recordID")); err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.NoContent(w)
}
