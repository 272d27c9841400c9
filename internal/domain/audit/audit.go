package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"hrms/internal/platform/apperr"
	"hrms/internal/platform/querier"
	"hrms/internal/requestctx"
)

const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionDelete   = "DELETE"
	ActionApprove  = "APPROVE"
	ActionReject   = "REJECT"
	ActionFinalize = "FINALIZE"
	ActionPay      = "PAY"
	ActionCalcRun  = "CALCULATE"
	ActionLogin    = "LOGIN"
	ActionLogout   = "LOGOUT"
)

type Entry struct {
	UserID     string
	ActionType string
	EntityType string
	EntityID   string
	Message    string
	Before     any
	After      any
}

type Event struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"userId,omitempty"`
	ActionType string          `json:"actionType"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Message    string          `json:"message"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	UserAgent  string          `json:"userAgent"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"oldValues,omitempty"`
	After      json.RawMessage `json:"newValues,omitempty"`
}

type Filter struct {
	ActionType string
	EntityType string
	UserID     string
	// From and To bound created_at by calendar day, both inclusive.
	From time.Time
	To   time.Time
}

var ErrEventNotFound = apperr.NotFound("audit_log_not_found", "audit log not found")

// Sink is the audit side effect services depend on.
type Sink interface {
	Log(ctx context.Context, entry Entry)
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

// Record inserts one audit row. It always uses the pool so a failing audit
// write cannot poison an open transaction.
func (s *Service) Record(ctx context.Context, entry Entry) error {
	var beforeJSON, afterJSON []byte
	if entry.Before != nil {
		payload, err := json.Marshal(entry.Before)
		if err != nil {
			return err
		}
		beforeJSON = payload
	}
	if entry.After != nil {
		payload, err := json.Marshal(entry.After)
		if err != nil {
			return err
		}
		afterJSON = payload
	}
	var userID *string
	if entry.UserID != "" {
		userID = &entry.UserID
	}
	meta := requestctx.MetaFrom(ctx)

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_logs (user_id, action_type, entity_type, entity_id, old_values, new_values, ip_address, user_agent, message, request_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  `, userID, entry.ActionType, entry.EntityType, entry.EntityID, beforeJSON, afterJSON, meta.IP, meta.UserAgent, entry.Message, requestctx.GetRequestID(ctx))
	return err
}

// Log is the best-effort variant of Record.
func (s *Service) Log(ctx context.Context, entry Entry) {
	if s == nil {
		return
	}
	if err := s.Record(ctx, entry); err != nil {
		slog.Warn("audit "+entry.EntityType+"."+entry.ActionType+" failed", "entityId", entry.EntityID, "err", err)
	}
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

const eventColumns = "id, user_id, action_type, entity_type, entity_id, message, request_id, ip_address, user_agent, created_at"

func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Event{}, ErrEventNotFound
	}
	var evt Event
	err := s.DB.QueryRow(ctx, "SELECT "+eventColumns+", old_values, new_values FROM audit_logs WHERE id = $1", id).Scan(
		&evt.ID, &evt.UserID, &evt.ActionType, &evt.EntityType, &evt.EntityID, &evt.Message, &evt.RequestID, &evt.IP, &evt.UserAgent, &evt.CreatedAt, &evt.Before, &evt.After)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrEventNotFound
	}
	return evt, err
}

func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	selectCols := eventColumns
	if includeDetails {
		selectCols += ", old_values, new_values"
	}
	query, args := buildBaseQuery("SELECT "+selectCols, filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.UserID, &evt.ActionType, &evt.EntityType, &evt.EntityID, &evt.Message, &evt.RequestID, &evt.IP, &evt.UserAgent, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(prefix string, filter Filter) (string, []any) {
	query := prefix + " FROM audit_logs WHERE 1=1"
	var args []any
	if filter.ActionType != "" {
		args = append(args, filter.ActionType)
		query += fmt.Sprintf(" AND action_type = $%d", len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		query += fmt.Sprintf(" AND user_id::text = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.AddDate(0, 0, 1))
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	return query, args
}

// Discard is a Sink that drops every entry.
type Discard struct{}

func (Discard) Log(context.Context, Entry) {}
