package bonushandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/bonus"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	CreatePolicy(ctx context.Context, actorID string, in bonus.PolicyInput) (bonus.Policy, error)
	UpdatePolicy(ctx context.Context, actorID, id string, in bonus.PolicyInput) (bonus.Policy, error)
	GetPolicy(ctx context.Context, id string) (bonus.Policy, error)
	ListPolicies(ctx context.Context, filter bonus.PolicyFilter) ([]bonus.Policy, error)
	DeletePolicy(ctx context.Context, actorID, id string) error
	ValidatePolicy(ctx context.Context, id string) (bonus.ValidationReport, error)
	PolicySummary(ctx context.Context) (bonus.PolicySummary, error)
	PolicyTypes(ctx context.Context) ([]string, error)
	CreateCalculation(ctx context.Context, actorID string, in bonus.CalculationInput) (bonus.Calculation, error)
	ListCalculations(ctx context.Context, filter bonus.CalculationFilter) ([]bonus.Calculation, int, error)
	GetCalculation(ctx context.Context, id string) (bonus.Calculation, error)
	ListDistributions(ctx context.Context, filter bonus.DistributionFilter) ([]bonus.Distribution, error)
	DeleteCalculation(ctx context.Context, actorID, id string) error
	RunCalculation(ctx context.Context, actorID, id string) (bonus.Calculation, error)
	AdjustDistribution(ctx context.Context, actorID, id string, in bonus.AdjustmentInput) (bonus.Distribution, error)
	ApproveCalculation(ctx context.Context, approverID, id string) (bonus.Calculation, error)
	PayDistribution(ctx context.Context, actorID, id string, in bonus.PaymentInput) (bonus.Payment, error)
	Statistics(ctx context.Context, year int) (bonus.Statistics, error)
	MyBonusHistory(ctx context.Context, employeeID string) ([]bonus.HistoryEntry, error)
}

// EventCounter is satisfied by the metrics collector.
type EventCounter interface {
	Inc(event string)
}

type Handler struct {
	Service Service
	Keys    middleware.IdempotencyKeys
	Events  EventCounter
}

func NewHandler(service Service, keys middleware.IdempotencyKeys, events EventCounter) *Handler {
	return &Handler{Service: service, Keys: keys, Events: events}
}

func (h *Handler) count(event string) {
	if h.Events != nil {
		h.Events.Inc(event)
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	manage := middleware.RequirePermission(auth.PermBonusManage)

	r.Route("/bonus-policies", func(r chi.Router) {
		r.Use(manage)
		r.Get("/", h.handleListPolicies)
		r.Post("/", h.handleCreatePolicy)
		r.Get("/summary", h.handlePolicySummary)
		r.Get("/types", h.handlePolicyTypes)
		r.Route("/{policyID}", func(r chi.Router) {
			r.Get("/", h.handleGetPolicy)
			r.Put("/", h.handleUpdatePolicy)
			r.Delete("/", h.handleDeletePolicy)
			r.Get("/validate", h.handleValidatePolicy)
		})
	})
	r.Route("/bonus-calculations", func(r chi.Router) {
		r.Use(manage)
		r.Get("/", h.handleListCalculations)
		r.Post("/", h.handleCreateCalculation)
		r.Route("/{calculationID}", func(r chi.Router) {
			r.Get("/", h.handleGetCalculation)
			r.Delete("/", h.handleDeleteCalculation)
			r.Get("/distributions", h.handleListDistributions)
			r.Post("/calculate", h.handleRunCalculation)
			r.With(middleware.Idempotent(h.Keys, "bonus.calculation.approve")).Post("/approve", h.handleApproveCalculation)
		})
	})
	r.Route("/bonus-distributions/{distributionID}", func(r chi.Router) {
		r.With(manage).Put("/adjust", h.handleAdjustDistribution)
		r.With(
			middleware.RequirePermission(auth.PermBonusPay),
			middleware.Idempotent(h.Keys, "bonus.distribution.pay"),
		).Post("/pay", h.handlePayDistribution)
	})
	r.With(manage).Get("/bonus-statistics", h.handleStatistics)
	r.With(middleware.RequirePermission(auth.PermBonusRead)).Get("/my-bonus-history", h.handleMyHistory)
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := h.Service.ListPolicies(r.Context(), bonus.PolicyFilter{
		ActiveOnly: shared.QueryBool(r, "activeOnly"),
		PolicyType: r.URL.Query().Get("policyType"),
	})
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, policies, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var payload bonus.PolicyInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	policy, err := h.Service.CreatePolicy(r.Context(), user.UserID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, policy, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePolicySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.PolicySummary(r.Context())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePolicyTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Service.PolicyTypes(r.Context())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.Service.GetPolicy(r.Context(), chi.URLParam(r, "policyID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, policy, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var payload bonus.PolicyInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	policy, err := h.Service.UpdatePolicy(r.Context(), user.UserID, chi.URLParam(r, "policyID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, policy, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeletePolicy(r.Context(), user.UserID, chi.URLParam(r, "policyID")); err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleValidatePolicy(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.ValidatePolicy(r.Context(), chi.URLParam(r, "policyID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListCalculations(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 20, 100)
	query := r.URL.Query()
	calculations, total, err := h.Service.ListCalculations(r.Context(), bonus.CalculationFilter{
		Status: query.Get("status"),
		Period: query.Get("period"),
		Search: strings.TrimSpace(query.Get("search")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, map[string]any{
		"calculations": calculations,
		"total":        total,
		"limit":        page.Limit,
		"offset":       page.Offset,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCalculation(w http.ResponseWriter, r *http.Request) {
	var payload bonus.CalculationInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	calc, err := h.Service.CreateCalculation(r.Context(), user.UserID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, calc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCalculation(w http.ResponseWriter, r *http.Request) {
	calc, err := h.Service.GetCalculation(r.Context(), chi.URLParam(r, "calculationID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, calc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteCalculation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteCalculation(r.Context(), user.UserID, chi.URLParam(r, "calculationID")); err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleListDistributions(w http.ResponseWriter, r *http.Request) {
	distributions, err := h.Service.ListDistributions(r.Context(), bonus.DistributionFilter{
		CalculationID: chi.URLParam(r, "calculationID"),
		DepartmentID:  r.URL.Query().Get("departmentId"),
	})
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, distributions, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunCalculation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	calc, err := h.Service.RunCalculation(r.Context(), user.UserID, chi.URLParam(r, "calculationID"))
	if err != nil {
		h.count("bonus.calculation.failed")
		shared.FailError(w, r, err)
		return
	}
	h.count("bonus.calculation.run")
	api.Success(w, calc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveCalculation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	calc, err := h.Service.ApproveCalculation(r.Context(), user.UserID, chi.URLParam(r, "calculationID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.count("bonus.calculation.approved")
	api.Success(w, calc, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdjustDistribution(w http.ResponseWriter, r *http.Request) {
	var payload bonus.AdjustmentInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	dist, err := h.Service.AdjustDistribution(r.Context(), user.UserID, chi.URLParam(r, "distributionID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, dist, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayDistribution(w http.ResponseWriter, r *http.Request) {
	var payload bonus.PaymentInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	payment, err := h.Service.PayDistribution(r.Context(), user.UserID, chi.URLParam(r, "distributionID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.count("bonus.distribution.paid")
	api.Success(w, payment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	year, err := shared.QueryInt(r, "year")
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	stats, err := h.Service.Statistics(r.Context(), year)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	history, err := h.Service.MyBonusHistory(r.Context(), user.EmployeeID)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, history, middleware.GetRequestID(r.Context()))
}
