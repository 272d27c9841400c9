package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/platform/apperr"
)

const dateLayout = "2006-01-02"

type Employees interface {
	GetEmployee(ctx context.Context, id string) (core.Employee, error)
}

type Service struct {
	Store     StoreAPI
	Employees Employees
	Audit     audit.Sink
	Now       func() time.Time
}

func NewService(store StoreAPI, employees Employees, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Service{Store: store, Employees: employees, Audit: sink, Now: time.Now}
}

func (s *Service) today() time.Time {
	now := s.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.Validation(field, "must be YYYY-MM-DD")
	}
	return t, nil
}

func (s *Service) GrantAnnualLeave(ctx context.Context, actorID string, in GrantInput) (Grant, error) {
	if in.TotalDays <= 0 {
		return Grant{}, apperr.Validation("totalDays", "must be greater than zero")
	}
	grantDate := s.today()
	if in.GrantDate != "" {
		parsed, err := parseDate("grantDate", in.GrantDate)
		if err != nil {
			return Grant{}, err
		}
		grantDate = parsed
	}
	if _, err := s.Employees.GetEmployee(ctx, in.EmployeeID); err != nil {
		return Grant{}, err
	}

	var grant Grant
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		_, err := s.Store.FindGrant(ctx, in.EmployeeID, in.Year)
		switch {
		case err == nil:
			return ErrDuplicateGrant
		case !errors.Is(err, ErrNoGrant):
			return err
		}
		g := Grant{EmployeeID: in.EmployeeID, Year: in.Year, TotalDays: in.TotalDays, GrantDate: grantDate, Note: in.Note}
		if actorID != "" {
			g.GrantedBy = &actorID
		}
		grant, err = s.Store.InsertGrant(ctx, g)
		return err
	})
	if err != nil {
		return Grant{}, err
	}
	s.Audit.Log(ctx, audit.Entry{
		UserID: actorID, ActionType: audit.ActionCreate, EntityType: "annual_leave_grant", EntityID: grant.ID,
		Message: fmt.Sprintf("granted %.1f days for %d", grant.TotalDays, grant.Year), After: grant,
	})
	return grant, nil
}

func (s *Service) RecordUsage(ctx context.Context, actorID string, in UsageInput) (Usage, error) {
	day, err := parseDate("usageDate", in.UsageDate)
	if err != nil {
		return Usage{}, err
	}
	if in.UsedDays <= 0 {
		return Usage{}, apperr.Validation("usedDays", "must be greater than zero")
	}
	if _, err := s.Employees.GetEmployee(ctx, in.EmployeeID); err != nil {
		return Usage{}, err
	}

	var usage Usage
	err = s.Store.InTx(ctx, func(ctx context.Context) error {
		usage, err = s.recordUsage(ctx, Usage{EmployeeID: in.EmployeeID, UsageDate: day, UsedDays: in.UsedDays, LeaveRequestID: in.LeaveRequestID, Note: in.Note})
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "annual_leave_usage", EntityID: usage.ID, Message: "annual leave used", After: usage})
	return usage, nil
}

// recordUsage must run inside a transaction. The year is the usage date's year.
func (s *Service) recordUsage(ctx context.Context, usage Usage) (Usage, error) {
	year := usage.UsageDate.Year()
	grant, err := s.Store.FindGrant(ctx, usage.EmployeeID, year)
	if err != nil {
		return Usage{}, err
	}
	used, err := s.Store.SumUsage(ctx, usage.EmployeeID, year)
	if err != nil {
		return Usage{}, err
	}
	if err := CheckUsage(grant.TotalDays, used, usage.UsedDays); err != nil {
		return Usage{}, err
	}
	return s.Store.InsertUsage(ctx, usage)
}

func (s *Service) Balance(ctx context.Context, employeeID string, year int) (Balance, error) {
	out := Balance{EmployeeID: employeeID, Year: year}
	grant, err := s.Store.FindGrant(ctx, employeeID, year)
	switch {
	case err == nil:
		out.Granted = grant.TotalDays
	case !errors.Is(err, ErrNoGrant):
		return Balance{}, err
	}
	used, err := s.Store.SumUsage(ctx, employeeID, year)
	if err != nil {
		return Balance{}, err
	}
	out.Used = used
	out.Remaining = out.Granted - used
	if out.Remaining < 0 {
		slog.Warn("annual leave ledger is negative", "employeeId", employeeID, "year", year, "remaining", out.Remaining)
	}
	return out, nil
}

func (s *Service) ListGrants(ctx context.Context, employeeID string, year int) ([]Grant, error) {
	return s.Store.ListGrants(ctx, employeeID, year)
}

func (s *Service) ListUsages(ctx context.Context, employeeID string, year int) ([]Usage, error) {
	return s.Store.ListUsages(ctx, employeeID, year)
}

// checkAnnualBalance verifies every year portion of the range fits its ledger.
func (s *Service) checkAnnualBalance(ctx context.Context, employeeID string, start, end time.Time) error {
	portions, err := SplitDaysByYear(start, end)
	if err != nil {
		return err
	}
	for _, p := range portions {
		bal, err := s.Balance(ctx, employeeID, p.Year)
		if err != nil {
			return err
		}
		if bal.Granted == 0 {
			return ErrNoGrant
		}
		if err := CheckUsage(bal.Granted, bal.Used, p.Days); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) prepareRequest(ctx context.Context, user auth.UserContext, employeeID string, in RequestInput) (Request, error) {
	start, err := parseDate("startDate", in.StartDate)
	if err != nil {
		return Request{}, err
	}
	end, err := parseDate("endDate", in.EndDate)
	if err != nil {
		return Request{}, err
	}
	if end.Before(start) {
		return Request{}, apperr.Validation("endDate", "must be on or after startDate")
	}
	if !user.IsAdmin() && start.Before(s.today()) {
		return Request{}, apperr.Validation("startDate", "cannot be in the past")
	}
	days, err := CountWeekdays(start, end)
	if err != nil {
		return Request{}, err
	}
	if days == 0 {
		return Request{}, apperr.Validation("endDate", "range contains no working days")
	}
	if in.LeaveType == TypeAnnual {
		if err := s.checkAnnualBalance(ctx, employeeID, start, end); err != nil {
			return Request{}, err
		}
	}
	return Request{
		EmployeeID:    employeeID,
		LeaveType:     in.LeaveType,
		StartDate:     start,
		EndDate:       end,
		DaysRequested: days,
		Reason:        strings.TrimSpace(in.Reason),
	}, nil
}

func (s *Service) CreateRequest(ctx context.Context, user auth.UserContext, in RequestInput) (Request, error) {
	employeeID := user.EmployeeID
	if user.IsAdmin() && in.EmployeeID != "" {
		employeeID = in.EmployeeID
	}
	if employeeID == "" {
		return Request{}, ErrNoEmployee
	}
	if _, err := s.Employees.GetEmployee(ctx, employeeID); err != nil {
		return Request{}, err
	}
	req, err := s.prepareRequest(ctx, user, employeeID, in)
	if err != nil {
		return Request{}, err
	}
	req.Status = StatusPending
	created, err := s.Store.InsertRequest(ctx, req)
	if err != nil {
		return Request{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: user.UserID, ActionType: audit.ActionCreate, EntityType: "leave_request", EntityID: created.ID, Message: "leave requested", After: created})
	return created, nil
}

func (s *Service) GetRequest(ctx context.Context, user auth.UserContext, id string) (Request, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !user.IsAdmin() && req.EmployeeID != user.EmployeeID {
		return Request{}, ErrNotOwner
	}
	return req, nil
}

func (s *Service) ListRequests(ctx context.Context, user auth.UserContext, filter RequestFilter) ([]Request, int, error) {
	if !user.IsAdmin() {
		if user.EmployeeID == "" {
			return nil, 0, ErrNoEmployee
		}
		filter.EmployeeID = user.EmployeeID
	}
	return s.Store.ListRequests(ctx, filter)
}

func (s *Service) UpdateRequest(ctx context.Context, user auth.UserContext, id string, in RequestInput) (Request, error) {
	var before, updated Request
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		current, err := s.GetRequest(ctx, user, id)
		if err != nil {
			return err
		}
		if current.Status != StatusPending {
			return ErrNotPending
		}
		next, err := s.prepareRequest(ctx, user, current.EmployeeID, in)
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.Status = current.Status
		before = current
		updated, err = s.Store.UpdateRequest(ctx, next)
		return err
	})
	if err != nil {
		return Request{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: user.UserID, ActionType: audit.ActionUpdate, EntityType: "leave_request", EntityID: id, Message: "leave request updated", Before: before, After: updated})
	return updated, nil
}

// ApproveRequest debits annual leave in the same transaction as the status
// change, one usage row per calendar year the request touches.
func (s *Service) ApproveRequest(ctx context.Context, approverID, id, note string) (Request, error) {
	var approved Request
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		req, err := s.Store.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrNotPending
		}
		now := s.Now()
		req.Status = StatusApproved
		req.ApproverID = &approverID
		req.ApprovedAt = &now
		req.DecisionNote = strings.TrimSpace(note)
		if approved, err = s.Store.UpdateRequest(ctx, req); err != nil {
			return err
		}
		if req.LeaveType != TypeAnnual {
			return nil
		}
		portions, err := SplitDaysByYear(req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		for _, p := range portions {
			if _, err := s.recordUsage(ctx, Usage{
				EmployeeID:     req.EmployeeID,
				UsageDate:      p.FirstDay,
				UsedDays:       p.Days,
				LeaveRequestID: &req.ID,
				Note:           fmt.Sprintf("leave request %s to %s", req.StartDate.Format(dateLayout), req.EndDate.Format(dateLayout)),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Request{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: approverID, ActionType: audit.ActionApprove, EntityType: "leave_request", EntityID: id, Message: "leave request approved", After: approved})
	return approved, nil
}

func (s *Service) RejectRequest(ctx context.Context, approverID, id, reason string) (Request, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Request{}, apperr.Validation("reason", "is required")
	}
	var rejected Request
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		req, err := s.Store.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		if req.Status != StatusPending {
			return ErrNotPending
		}
		now := s.Now()
		req.Status = StatusRejected
		req.ApproverID = &approverID
		req.ApprovedAt = &now
		req.RejectionReason = reason
		rejected, err = s.Store.UpdateRequest(ctx, req)
		return err
	})
	if err != nil {
		return Request{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: approverID, ActionType: audit.ActionReject, EntityType: "leave_request", EntityID: id, Message: "leave request rejected: " + reason})
	return rejected, nil
}

// DeleteRequest lets owners drop pending requests. Admins may delete any
// request; removing an approved annual request credits its usages back.
func (s *Service) DeleteRequest(ctx context.Context, user auth.UserContext, id string) error {
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		req, err := s.GetRequest(ctx, user, id)
		if err != nil {
			return err
		}
		if !user.IsAdmin() && req.Status != StatusPending {
			return ErrNotPending
		}
		if req.Status == StatusApproved && req.LeaveType == TypeAnnual {
			if err := s.Store.DeleteUsagesForRequest(ctx, id); err != nil {
				return err
			}
		}
		return s.Store.DeleteRequest(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: user.UserID, ActionType: audit.ActionDelete, EntityType: "leave_request", EntityID: id, Message: "leave request deleted"})
	return nil
}
