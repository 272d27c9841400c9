package leave

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Beginner
}

func NewStore(db querier.Beginner) *Store {
	return &Store{DB: db}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return querier.InTx(ctx, s.DB, fn)
}

const grantColumns = "id, employee_id, year, total_days, grant_date, note, granted_by, created_at"

func scanGrant(row pgx.Row) (Grant, error) {
	var g Grant
	err := row.Scan(&g.ID, &g.EmployeeID, &g.Year, &g.TotalDays, &g.GrantDate, &g.Note, &g.GrantedBy, &g.CreatedAt)
	return g, err
}

// FindGrant locks the grant row so concurrent usages for the same year queue
// behind each other inside a transaction.
func (s *Store) FindGrant(ctx context.Context, employeeID string, year int) (Grant, error) {
	g, err := scanGrant(querier.From(ctx, s.DB).QueryRow(ctx,
		"SELECT "+grantColumns+" FROM annual_leave_grants WHERE employee_id = $1 AND year = $2 ORDER BY created_at LIMIT 1 FOR UPDATE",
		employeeID, year))
	if errors.Is(err, pgx.ErrNoRows) {
		return Grant{}, ErrNoGrant
	}
	return g, err
}

func (s *Store) InsertGrant(ctx context.Context, grant Grant) (Grant, error) {
	return scanGrant(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO annual_leave_grants (employee_id, year, total_days, grant_date, note, granted_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+grantColumns,
		grant.EmployeeID, grant.Year, grant.TotalDays, grant.GrantDate, grant.Note, grant.GrantedBy))
}

func (s *Store) ListGrants(ctx context.Context, employeeID string, year int) ([]Grant, error) {
	where, args := yearFilter("grant", employeeID, year)
	rows, err := querier.From(ctx, s.DB).Query(ctx, "SELECT "+grantColumns+" FROM annual_leave_grants"+where+" ORDER BY year DESC, created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func yearFilter(kind, employeeID string, year int) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if employeeID != "" {
		args = append(args, employeeID)
		where += fmt.Sprintf(" AND employee_id::text = $%d", len(args))
	}
	if year > 0 {
		args = append(args, year)
		if kind == "grant" {
			where += fmt.Sprintf(" AND year = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND EXTRACT(YEAR FROM usage_date)::int = $%d", len(args))
		}
	}
	return where, args
}

func (s *Store) SumUsage(ctx context.Context, employeeID string, year int) (float64, error) {
	var used float64
	err := querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT COALESCE(SUM(used_days), 0)
    FROM annual_leave_usages
    WHERE employee_id = $1 AND EXTRACT(YEAR FROM usage_date)::int = $2
  `, employeeID, year).Scan(&used)
	return used, err
}

const usageColumns = "id, employee_id, usage_date, used_days, leave_request_id, note, created_at"

func scanUsage(row pgx.Row) (Usage, error) {
	var u Usage
	err := row.Scan(&u.ID, &u.EmployeeID, &u.UsageDate, &u.UsedDays, &u.LeaveRequestID, &u.Note, &u.CreatedAt)
	return u, err
}

func (s *Store) InsertUsage(ctx context.Context, usage Usage) (Usage, error) {
	return scanUsage(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO annual_leave_usages (employee_id, usage_date, used_days, leave_request_id, note)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING `+usageColumns,
		usage.EmployeeID, usage.UsageDate, usage.UsedDays, usage.LeaveRequestID, usage.Note))
}

func (s *Store) ListUsages(ctx context.Context, employeeID string, year int) ([]Usage, error) {
	where, args := yearFilter("usage", employeeID, year)
	rows, err := querier.From(ctx, s.DB).Query(ctx, "SELECT "+usageColumns+" FROM annual_leave_usages"+where+" ORDER BY usage_date DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Usage
	for rows.Next() {
		u, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) DeleteUsagesForRequest(ctx context.Context, requestID string) error {
	_, err := querier.From(ctx, s.DB).Exec(ctx, "DELETE FROM annual_leave_usages WHERE leave_request_id = $1", requestID)
	return err
}

const requestColumns = `id, employee_id, leave_type, start_date, end_date, days_requested, reason, status,
  approver_id, approved_at, decision_note, rejection_reason, created_at, updated_at`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.EmployeeID, &r.LeaveType, &r.StartDate, &r.EndDate, &r.DaysRequested, &r.Reason, &r.Status,
		&r.ApproverID, &r.ApprovedAt, &r.DecisionNote, &r.RejectionReason, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return r, err
}

func (s *Store) InsertRequest(ctx context.Context, req Request) (Request, error) {
	return scanRequest(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, days_requested, reason, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+requestColumns,
		req.EmployeeID, req.LeaveType, req.StartDate, req.EndDate, req.DaysRequested, req.Reason, req.Status))
}

// GetRequest locks the row when called inside a transaction.
func (s *Store) GetRequest(ctx context.Context, id string) (Request, error) {
	return scanRequest(querier.From(ctx, s.DB).QueryRow(ctx, "SELECT "+requestColumns+" FROM leave_requests WHERE id = $1 FOR UPDATE", id))
}

func (s *Store) UpdateRequest(ctx context.Context, req Request) (Request, error) {
	return scanRequest(querier.From(ctx, s.DB).QueryRow(ctx, `
    UPDATE leave_requests
    SET leave_type = $2, start_date = $3, end_date = $4, days_requested = $5, reason = $6, status = $7,
        approver_id = $8, approved_at = $9, decision_note = $10, rejection_reason = $11, updated_at = now()
    WHERE id = $1
    RETURNING `+requestColumns,
		req.ID, req.LeaveType, req.StartDate, req.EndDate, req.DaysRequested, req.Reason, req.Status,
		req.ApproverID, req.ApprovedAt, req.DecisionNote, req.RejectionReason))
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, "DELETE FROM leave_requests WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, int, error) {
	q := querier.From(ctx, s.DB)
	where := " WHERE 1=1"
	var args []any
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND employee_id::text = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.LeaveType != "" {
		args = append(args, filter.LeaveType)
		where += fmt.Sprintf(" AND leave_type = $%d", len(args))
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + requestColumns + " FROM leave_requests" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}
