package leave

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/platform/apperr"
)

type memoryStore struct {
	grants   []Grant
	usages   []Usage
	requests []Request
	seq      int
}

func (m *memoryStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

// InTx restores every slice when fn fails.
func (m *memoryStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	grants := append([]Grant(nil), m.grants...)
	usages := append([]Usage(nil), m.usages...)
	requests := append([]Request(nil), m.requests...)
	if err := fn(ctx); err != nil {
		m.grants, m.usages, m.requests = grants, usages, requests
		return err
	}
	return nil
}

func (m *memoryStore) FindGrant(_ context.Context, employeeID string, year int) (Grant, error) {
	for _, g := range m.grants {
		if g.EmployeeID == employeeID && g.Year == year {
			return g, nil
		}
	}
	return Grant{}, ErrNoGrant
}

func (m *memoryStore) InsertGrant(_ context.Context, g Grant) (Grant, error) {
	g.ID = m.nextID("g")
	m.grants = append(m.grants, g)
	return g, nil
}

func (m *memoryStore) ListGrants(_ context.Context, employeeID string, year int) ([]Grant, error) {
	var out []Grant
	for _, g := range m.grants {
		if (employeeID == "" || g.EmployeeID == employeeID) && (year == 0 || g.Year == year) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memoryStore) SumUsage(_ context.Context, employeeID string, year int) (float64, error) {
	var sum float64
	for _, u := range m.usages {
		if u.EmployeeID == employeeID && u.UsageDate.Year() == year {
			sum += u.UsedDays
		}
	}
	return sum, nil
}

func (m *memoryStore) InsertUsage(_ context.Context, u Usage) (Usage, error) {
	u.ID = m.nextID("u")
	m.usages = append(m.usages, u)
	return u, nil
}

func (m *memoryStore) ListUsages(_ context.Context, employeeID string, year int) ([]Usage, error) {
	var out []Usage
	for _, u := range m.usages {
		if (employeeID == "" || u.EmployeeID == employeeID) && (year == 0 || u.UsageDate.Year() == year) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryStore) DeleteUsagesForRequest(_ context.Context, requestID string) error {
	kept := m.usages[:0]
	for _, u := range m.usages {
		if u.LeaveRequestID == nil || *u.LeaveRequestID != requestID {
			kept = append(kept, u)
		}
	}
	m.usages = kept
	return nil
}

func (m *memoryStore) InsertRequest(_ context.Context, r Request) (Request, error) {
	r.ID = m.nextID("r")
	m.requests = append(m.requests, r)
	return r, nil
}

func (m *memoryStore) GetRequest(_ context.Context, id string) (Request, error) {
	for _, r := range m.requests {
		if r.ID == id {
			return r, nil
		}
	}
	return Request{}, ErrRequestNotFound
}

func (m *memoryStore) UpdateRequest(_ context.Context, r Request) (Request, error) {
	for i := range m.requests {
		if m.requests[i].ID == r.ID {
			m.requests[i] = r
			return r, nil
		}
	}
	return Request{}, ErrRequestNotFound
}

func (m *memoryStore) DeleteRequest(_ context.Context, id string) error {
	for i := range m.requests {
		if m.requests[i].ID == id {
			m.requests = append(m.requests[:i], m.requests[i+1:]...)
			return nil
		}
	}
	return ErrRequestNotFound
}

func (m *memoryStore) ListRequests(_ context.Context, filter RequestFilter) ([]Request, int, error) {
	var out []Request
	for _, r := range m.requests {
		if filter.EmployeeID != "" && r.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

type employees map[string]bool

func (e employees) GetEmployee(_ context.Context, id string) (core.Employee, error) {
	if !e[id] {
		return core.Employee{}, core.ErrEmployeeNotFound
	}
	return core.Employee{ID: id}, nil
}

var (
	admin = auth.UserContext{UserID: "admin", Role: auth.RoleAdmin}
	kim   = auth.UserContext{UserID: "u1", Role: auth.RoleUser, EmployeeID: "e1"}
	lee   = auth.UserContext{UserID: "u2", Role: auth.RoleUser, EmployeeID: "e2"}
)

func newTestService() (*Service, *memoryStore) {
	store := &memoryStore{}
	svc := NewService(store, employees{"e1": true, "e2": true}, nil)
	svc.Now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestGrantIsUniquePerYear(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	grant, err := svc.GrantAnnualLeave(ctx, "admin", GrantInput{EmployeeID: "e1", Year: 2025, TotalDays: 15})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", grant.GrantDate.Format(dateLayout))

	_, err = svc.GrantAnnualLeave(ctx, "admin", GrantInput{EmployeeID: "e1", Year: 2025, TotalDays: 3})
	assert.ErrorIs(t, err, ErrDuplicateGrant)

	_, err = svc.GrantAnnualLeave(ctx, "admin", GrantInput{EmployeeID: "ghost", Year: 2025, TotalDays: 3})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRecordUsageNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	_, err := svc.RecordUsage(ctx, "admin", UsageInput{EmployeeID: "e1", UsageDate: "2025-04-01", UsedDays: 1})
	assert.ErrorIs(t, err, ErrNoGrant)

	_, err = svc.GrantAnnualLeave(ctx, "admin", GrantInput{EmployeeID: "e1", Year: 2025, TotalDays: 3})
	require.NoError(t, err)
	_, err = svc.RecordUsage(ctx, "admin", UsageInput{EmployeeID: "e1", UsageDate: "2025-04-01", UsedDays: 2})
	require.NoError(t, err)

	_, err = svc.RecordUsage(ctx, "admin", UsageInput{EmployeeID: "e1", UsageDate: "2025-04-02", UsedDays: 1.5})
	assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)
	assert.Len(t, store.usages, 1, "failed usage must not be written")

	bal, err := svc.Balance(ctx, "e1", 2025)
	require.NoError(t, err)
	assert.Equal(t, Balance{EmployeeID: "e1", Year: 2025, Granted: 3, Used: 2, Remaining: 1}, bal)

	empty, err := svc.Balance(ctx, "e2", 2025)
	require.NoError(t, err)
	assert.Zero(t, empty.Granted)
}

func TestCreateRequestCountsWeekdays(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	// Mon 2025-03-10 .. Sun 2025-03-16
	req, err := svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeSick, StartDate: "2025-03-10", EndDate: "2025-03-16"})
	require.NoError(t, err)
	assert.Equal(t, 5.0, req.DaysRequested)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, "e1", req.EmployeeID)

	_, err = svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeSick, StartDate: "2025-02-10", EndDate: "2025-02-11"})
	assert.ErrorIs(t, err, apperr.ErrValidation, "past start for non-admin")

	_, err = svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeSick, StartDate: "2025-03-15", EndDate: "2025-03-16"})
	assert.ErrorIs(t, err, apperr.ErrValidation, "weekend only")

	_, err = svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeAnnual, StartDate: "2025-03-10", EndDate: "2025-03-11"})
	assert.ErrorIs(t, err, ErrNoGrant)
}

func TestApproveAnnualDebitsLedger(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	_, err := svc.GrantAnnualLeave(ctx, "admin", GrantInput{EmployeeID: "e1", Year: 2025, TotalDays: 2})
	require.NoError(t, err)

	req, err := svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeAnnual, StartDate: "2025-03-10", EndDate: "2025-03-11"})
	require.NoError(t, err)

	approved, err := svc.ApproveRequest(ctx, "admin", req.ID, "enjoy")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	bal, err := svc.Balance(ctx, "e1", 2025)
	require.NoError(t, err)
	assert.Zero(t, bal.Remaining)

	_, err = svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeAnnual, StartDate: "2025-03-12", EndDate: "2025-03-12"})
	assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)

	_, err = svc.ApproveRequest(ctx, "admin", req.ID, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestApproveRechecksBalanceAndRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	_, err := svc.GrantAnnualLeave(ctx, "admin", GrantInput{EmployeeID: "e1", Year: 2025, TotalDays: 2})
	require.NoError(t, err)

	first, err := svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeAnnual, StartDate: "2025-03-10", EndDate: "2025-03-11"})
	require.NoError(t, err)
	second, err := svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeAnnual, StartDate: "2025-03-12", EndDate: "2025-03-12"})
	require.NoError(t, err)

	_, err = svc.ApproveRequest(ctx, "admin", first.ID, "")
	require.NoError(t, err)

	_, err = svc.ApproveRequest(ctx, "admin", second.ID, "")
	assert.ErrorIs(t, err, apperr.ErrInsufficientBalance)

	stored, err := store.GetRequest(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status, "status change must roll back with the usage")
}

func TestApproveAcrossYearsDebitsEachYear(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	for _, year := range []int{2025, 2026} {
		_, err := svc.GrantAnnualLeave(ctx, "admin", GrantInput{EmployeeID: "e1", Year: year, TotalDays: 15})
		require.NoError(t, err)
	}

	// Mon 2025-12-29 .. Fri 2026-01-02
	req, err := svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeAnnual, StartDate: "2025-12-29", EndDate: "2026-01-02"})
	require.NoError(t, err)
	_, err = svc.ApproveRequest(ctx, "admin", req.ID, "")
	require.NoError(t, err)

	require.Len(t, store.usages, 2)
	b25, _ := svc.Balance(ctx, "e1", 2025)
	b26, _ := svc.Balance(ctx, "e1", 2026)
	assert.Equal(t, 3.0, b25.Used)
	assert.Equal(t, 2.0, b26.Used)
}

func TestRejectRequiresReason(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	req, err := svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeOther, StartDate: "2025-03-10", EndDate: "2025-03-10"})
	require.NoError(t, err)

	_, err = svc.RejectRequest(ctx, "admin", req.ID, "  ")
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "reason", appErr.Field)

	rejected, err := svc.RejectRequest(ctx, "admin", req.ID, "busy week")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "busy week", rejected.RejectionReason)
}

func TestOwnershipAndDeleteRules(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	_, err := svc.GrantAnnualLeave(ctx, "admin", GrantInput{EmployeeID: "e1", Year: 2025, TotalDays: 10})
	require.NoError(t, err)
	req, err := svc.CreateRequest(ctx, kim, RequestInput{LeaveType: TypeAnnual, StartDate: "2025-03-10", EndDate: "2025-03-11"})
	require.NoError(t, err)

	_, err = svc.GetRequest(ctx, lee, req.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteRequest(ctx, lee, req.ID), apperr.ErrForbidden)

	_, err = svc.UpdateRequest(ctx, kim, req.ID, RequestInput{LeaveType: TypeAnnual, StartDate: "2025-03-10", EndDate: "2025-03-12"})
	require.NoError(t, err)

	_, err = svc.ApproveRequest(ctx, "admin", req.ID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteRequest(ctx, kim, req.ID), apperr.ErrInvalidState)
	_, err = svc.UpdateRequest(ctx, kim, req.ID, RequestInput{LeaveType: TypeAnnual, StartDate: "2025-03-10", EndDate: "2025-03-10"})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	require.NoError(t, svc.DeleteRequest(ctx, admin, req.ID))
	assert.Empty(t, store.usages, "deleting an approved annual request credits the days back")

	mine, _, err := svc.ListRequests(ctx, lee, RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, mine)
}
