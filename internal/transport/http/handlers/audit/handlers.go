package audithandler

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/platform/apperr"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	Count(ctx context.Context, filter audit.Filter) (int, error)
	List(ctx context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
	Get(ctx context.Context, id string) (audit.Event, error)
	Summary(ctx context.Context, days int, now time.Time) (audit.Summary, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

const (
	exportLimit        = 10000
	defaultSummaryDays = 30
	maxSummaryDays     = 365
)

// secretKeys are dropped from before/after snapshots in list responses.
var secretKeys = []string{"password", "password_hash", "passwordHash"}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit-logs", func(r chi.Router) {
		r.Get("/my", h.handleMine)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermAuditRead))
			r.Get("/", h.handleList)
			r.Get("/export", h.handleExport)
			r.Get("/summary", h.handleSummary)
			r.Get("/{logID}", h.handleGet)
		})
	})
}

func filterFrom(r *http.Request) (audit.Filter, error) {
	query := r.URL.Query()
	filter := audit.Filter{
		ActionType: query.Get("actionType"),
		EntityType: query.Get("entityType"),
		UserID:     query.Get("userId"),
	}
	var err error
	if filter.From, err = shared.QueryDate(r, "from"); err != nil {
		return audit.Filter{}, err
	}
	if filter.To, err = shared.QueryDate(r, "to"); err != nil {
		return audit.Filter{}, err
	}
	return filter, nil
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	h.writePage(w, r, filter, shared.QueryBool(r, "includeDetails"))
}

// handleMine is the caller's own trail; any signed-in user may read it.
func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	user, _ := middleware.GetUser(r.Context())
	filter.UserID = user.UserID
	h.writePage(w, r, filter, true)
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, filter audit.Filter, includeDetails bool) {
	page := shared.ParsePagination(r, 100, 500)
	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		slog.Warn("audit count failed", "err", err)
	}

	events, err := h.Service.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	for i := range events {
		events[i].Before = stripSecrets(events[i].Before)
		events[i].After = stripSecrets(events[i].After)
	}

	shared.SetTotal(w, total)
	api.Success(w, map[string]any{
		"logs":   events,
		"total":  total,
		"limit":  page.Limit,
		"offset": page.Offset,
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	evt, err := h.Service.Get(r.Context(), chi.URLParam(r, "logID"))
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, evt, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	days, err := shared.QueryInt(r, "days")
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	if days == 0 {
		days = defaultSummaryDays
	}
	if days < 1 || days > maxSummaryDays {
		shared.FailError(w, r, apperr.Validation("days", "must be between 1 and 365"))
		return
	}
	summary, err := h.Service.Summary(r.Context(), days, time.Now())
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFrom(r)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}
	events, err := h.Service.List(r.Context(), filter, false, exportLimit, 0)
	if err != nil {
		shared.FailError(w, r, err)
		return
	}

	api.SetAttachment(w, "text/csv", "audit-logs.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "user_id", "action_type", "entity_type", "entity_id", "message", "request_id", "ip", "created_at"}); err != nil {
		slog.Warn("audit export header failed", "err", err)
	}
	for _, evt := range events {
		userID := ""
		if evt.UserID != nil {
			userID = *evt.UserID
		}
		row := []string{evt.ID, userID, evt.ActionType, evt.EntityType, evt.EntityID, evt.Message, evt.RequestID, evt.IP, evt.CreatedAt.Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			slog.Warn("audit export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("audit export flush failed", "err", err)
	}
}

func stripSecrets(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	removed := false
	for _, key := range secretKeys {
		if _, ok := fields[key]; ok {
			delete(fields, key)
			removed = true
		}
	}
	if !removed {
		return raw
	}
	cleaned, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return cleaned
}
