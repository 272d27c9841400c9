package performancehandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/performance"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	CreateCriteria(ctx context.Context, actorID string, in performance.CriteriaInput) (performance.Criteria, error)
	UpdateCriteria(ctx context.Context, actorID, id string, in performance.CriteriaInput) (performance.Criteria, error)
	GetCriteria(ctx context.Context, id string) (performance.Criteria, error)
	ListCriteria(ctx context.Context, filter performance.CriteriaFilter) ([]performance.Criteria, error)
	DeleteCriteria(ctx context.Context, actorID, id string) error
	CriteriaSummary(ctx context.Context) (performance.CriteriaSummary, error)
	Categories(ctx context.Context) ([]string, error)
	CreateEvaluation(ctx context.Context, actorID string, in performance.EvaluationInput) (performance.Evaluation, error)
	UpdateEvaluation(ctx context.Context, actorID, id string, in performance.EvaluationInput) (performance.Evaluation, error)
	GetEvaluation(ctx context.Context, id string) (performance.Evaluation, error)
	ListEvaluations(ctx context.Context, status string) ([]performance.Evaluation, error)
	DeleteEvaluation(ctx context.Context, actorID, id string) error
	CreateResult(ctx context.Context, actorID, evaluationID string, in performance.ResultInput) (performance.Result, error)
	GetResult(ctx context.Context, id string) (performance.Result, error)
	ListResults(ctx context.Context, evaluationID, status string) ([]performance.Result, error)
	MyResults(ctx context.Context, employeeID, status string) ([]performance.Result, error)
	UpdateResult(ctx context.Context, actorID, id string, in performance.ResultUpdate) (performance.Result, error)
	ApproveResult(ctx context.Context, approverID, id string) (performance.Result, error)
	Stats(ctx context.Context) (performance.Stats, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermEvaluationRead)
	manage := middleware.RequirePermission(auth.PermEvaluationManage)

	r.Route("/evaluation-criteria", func(r chi.Router) {
		r.With(read).Get("/", h.handleListCriteria)
		r.With(read).Get("/summary", h.handleCriteriaSummary)
		r.With(read).Get("/categories", h.handleCategories)
		r.With(manage).Post("/", h.handleCreateCriteria)
		r.Route("/{criteriaID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGetCriteria)
			r.With(manage).Put("/", h.handleUpdateCriteria)
			r.With(manage).Delete("/", h.handleDeleteCriteria)
		})
	})
	r.Route("/evaluations", func(r chi.Router) {
		r.With(read).Get("/", h.handleListEvaluations)
		r.With(manage).Post("/", h.handleCreateEvaluation)
		r.Route("/{evaluationID}", func(r chi.Router) {
			r.With(read).Get("/", h.handleGetEvaluation)
			r.With(manage).Put("/", h.handleUpdateEvaluation)
			r.With(manage).Delete("/", h.handleDeleteEvaluation)
			r.With(manage).Get("/results", h.handleListResults)
			r.With(manage).Post("/results", h.handleCreateResult)
		})
	})
	r.Route("/evaluation-results/{resultID}", func(r chi.Router) {
		r.With(read).Get("/", h.handleGetResult)
		r.With(middleware.RequirePermission(auth.PermEvaluationWrite)).Put("/", h.handleUpdateResult)
		r.With(manage).Post("/approve", h.handleApproveResult)
	})
	r.With(read).Get("/my-evaluations", h.handleMyEvaluations)
	r.With(manage).Get("/evaluation-stats", h.handleStats)
}

func (h *Handler) handleListCriteria(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.Service.ListCriteria(r.Context(), performance.CriteriaFilter{
		Category:   r.URL.Query().Get("category"),
		ActiveOnly: shared.QueryBool(r, "activeOnly"),
	})
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, criteria, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCriteriaSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.CriteriaSummary(r.Context())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.Categories(r.Context())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, categories, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCriteria(w http.ResponseWriter, r *http.Request) {
	var payload performance.CriteriaInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	criteria, err := h.Service.CreateCriteria(r.Context(), user.UserID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, criteria, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCriteria(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.Service.GetCriteria(r.Context(), chi.URLParam(r, "criteriaID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, criteria, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCriteria(w http.ResponseWriter, r *http.Request) {
	var payload performance.CriteriaInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	criteria, err := h.Service.UpdateCriteria(r.Context(), user.UserID, chi.URLParam(r, "criteriaID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, criteria, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteCriteria(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteCriteria(r.Context(), user.UserID, chi.URLParam(r, "criteriaID")); err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleListEvaluations(w http.ResponseWriter, r *http.Request) {
	evaluations, err := h.Service.ListEvaluations(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, evaluations, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEvaluation(w http.ResponseWriter, r *http.Request) {
	var payload performance.EvaluationInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	evaluation, err := h.Service.CreateEvaluation(r.Context(), user.UserID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, evaluation, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEvaluation(w http.ResponseWriter, r *http.Request) {
	evaluation, err := h.Service.GetEvaluation(r.Context(), chi.URLParam(r, "evaluationID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, evaluation, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEvaluation(w http.ResponseWriter, r *http.Request) {
	var payload performance.EvaluationInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	evaluation, err := h.Service.UpdateEvaluation(r.Context(), user.UserID, chi.URLParam(r, "evaluationID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, evaluation, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEvaluation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if err := h.Service.DeleteEvaluation(r.Context(), user.UserID, chi.URLParam(r, "evaluationID")); err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.Service.ListResults(r.Context(), chi.URLParam(r, "evaluationID"), r.URL.Query().Get("status"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, results, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateResult(w http.ResponseWriter, r *http.Request) {
	var payload performance.ResultInput
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	result, err := h.Service.CreateResult(r.Context(), user.UserID, chi.URLParam(r, "evaluationID"), payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Created(w, result, middleware.GetRequestID(r.Context()))
}

// participant reports whether the caller may see the result, and whether
// they may act as its evaluator.
func participant(user auth.UserContext, result performance.Result) (visible, evaluator bool) {
	if user.IsAdmin() {
		return true, true
	}
	if user.EmployeeID == "" {
		return false, false
	}
	evaluator = result.EvaluatorID == user.EmployeeID
	return evaluator || result.EmployeeID == user.EmployeeID, evaluator
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	result, err := h.Service.GetResult(r.Context(), chi.URLParam(r, "resultID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	if visible, _ := participant(user, result); !visible {
		shared.FailError(w, r, performance.ErrResultNotFound)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateResult(w http.ResponseWriter, r *http.Request) {
	var payload performance.ResultUpdate
	if !shared.DecodeAndValidate(w, r, &payload) {
		return
	}
	user, _ := middleware.GetUser(r.Context())
	resultID := chi.URLParam(r, "resultID")
	current, err := h.Service.GetResult(r.Context(), resultID)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	visible, evaluator := participant(user, current)
	if !visible {
		shared.FailError(w, r, performance.ErrResultNotFound)
		return
	}
	if !evaluator {
		// the evaluated employee only writes the self-evaluation
		payload = performance.ResultUpdate{SelfEvaluation: payload.SelfEvaluation}
	}
	result, err := h.Service.UpdateResult(r.Context(), user.UserID, resultID, payload)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApproveResult(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	result, err := h.Service.ApproveResult(r.Context(), user.UserID, chi.URLParam(r, "resultID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMyEvaluations(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Success(w, []performance.Result{}, middleware.GetRequestID(r.Context()))
		return
	}
	results, err := h.Service.MyResults(r.Context(), user.EmployeeID, r.URL.Query().Get("status"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, results, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, stats, middleware.GetRequestID(r.Context()))
}
