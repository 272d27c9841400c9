package payrollhandler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/payroll"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	CreateRecord(ctx context.Context, actorID string, in payroll.RecordInput) (payroll.Record, error)
	UpdateRecord(ctx context.Context, actorID, id string, in payroll.RecordInput) (payroll.Record, error)
	FinalizeRecord(ctx context.Context, actorID, id string) (payroll.Record, error)
	DeleteRecord(ctx context.Context, actorID, id string) error
	GetRecord(ctx context.Context, user auth.UserContext, id string) (payroll.Record, error)
	ListRecords(ctx context.Context, user auth.UserContext, filter payroll.RecordFilter) (payroll.RecordList, error)
	MyRecords(ctx context.Context, employeeID string, year int) (payroll.MyRecords, error)
	PeriodStatistics(ctx context.Context, period string) ([]payroll.PeriodStats, error)
	Periods(ctx context.Context) (payroll.PeriodList, error)
	Calculate(in payroll.Input) (payroll.Breakdown, error)
	Payslip(ctx context.Context, user auth.UserContext, id string) (payroll.Record, []byte, error)
	ExportPeriod(ctx context.Context, period string) ([]byte, error)
}

type Handler struct {
	Service Service
	Keys    middleware.IdempotencyKeys
}

func NewHandler(service Service, keys middleware.IdempotencyKeys) *Handler {
	return &Handler{Service: service, Keys: keys}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPayrollRead)
	write := middleware.RequirePermission(auth.PermPayrollWrite)

	r.Route("/payroll", func(r chi.Router) {
		r.Route("/records", func(r chi.Router) {
			r.With(read).Get("/", h.handleList)
			r.With(write).Post("/", h.handleCreate)
			r.Route("/{recordID}", func(r chi.Router) {
				r.With(read).Get("/", h.handleGet)
				r.With(write).Put("/", h.handleUpdate)
				r.With(write).Delete("/", h.handleDelete)
				r.With(read).Get("/payslip", h.handlePayslip)
				r.With(
					middleware.RequirePermission(auth.PermPayrollFinalize),
					middleware.Idempotent(h.Keys, "payroll.finalize"),
				).Post("/finalize", h.handleFinalize)
			})
		})
		r.With(read).Get("/my-records", h.handleMyRecords)
		r.With(write).Get("/statistics", h.handleStatistics)
		r.With(write).Get("/export", h.handleExport)
		r.With(write).Post("/calculate", h.handleCalculate)
	})
	r.With(write).Get("/payroll-periods", h.handlePeriods)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	year, err := shared.QueryInt(r, "year")
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	page := shared.ParsePagination(r, 50, 500)
	query := r.URL.Query()
	list, err := h.Service.ListRecords(r.Context(), user, payroll.RecordFilter{
		EmployeeID: query.Get("employeeId"),
		Period:     query.Get("period"),
		Year:       year,
		Status:     query.Get("status"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload payroll.RecordInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	record, err := h.Service.CreateRecord(r.Context(), user.UserID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	record, err := h.Service.GetRecord(r.Context(), user, chi.URLParam(r, "recordID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload payroll.RecordInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	record, err := h.Service.UpdateRecord(r.Context(), user.UserID, chi.URLParam(r, "recordID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteRecord(r.Context(), user.UserID, chi.URLParam(r, "recordID")); err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	record, err := h.Service.FinalizeRecord(r.Context(), user.UserID, chi.URLParam(r, "recordID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	record, pdf, err := h.Service.Payslip(r.Context(), user, chi.URLParam(r, "recordID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	filename := fmt.Sprintf("payslip-%s-%s.pdf", record.EmployeeNumber, record.Period)
	api.Attachment(w, "application/pdf", filename, pdf)
}

func (h *Handler) handleMyRecords(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	year, err := shared.QueryInt(r, "year")
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	records, err := h.Service.MyRecords(r.Context(), user.EmployeeID, year)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.PeriodStatistics(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePeriods(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.Periods(r.Context())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if _, _, err := payroll.ParsePeriod(period); err != nil {
		shared.FailError(w, r, err)
		return
	}
	workbook, err := h.Service.ExportPeriod(r.Context(), period)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Attachment(w, xlsxContentType, "payroll-"+period+".xlsx", workbook)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var payload payroll.Input
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	breakdown, err := h.Service.Calculate(payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, breakdown, middleware.GetRequestID(r.Context()))
}
