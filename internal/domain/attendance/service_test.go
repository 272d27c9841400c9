package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/core"
	"hrms/internal/platform/apperr"
)

type memoryStore struct {
	records []Record
}

func (m *memoryStore) GetByDate(_ context.Context, employeeID string, day time.Time) (Record, error) {
	for _, r := range m.records {
		if r.EmployeeID == employeeID && r.WorkDate.Equal(day) {
			return r, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (m *memoryStore) Get(_ context.Context, id string) (Record, error) {
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (m *memoryStore) Insert(_ context.Context, rec Record) (Record, error) {
	rec.ID = fmt.Sprintf("a%d", len(m.records)+1)
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memoryStore) Update(_ context.Context, rec Record) (Record, error) {
	for i := range m.records {
		if m.records[i].ID == rec.ID {
			m.records[i] = rec
			return rec, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	for i := range m.records {
		if m.records[i].ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return ErrRecordNotFound
}

func (m *memoryStore) List(_ context.Context, filter Filter) ([]Record, int, error) {
	var out []Record
	for _, r := range m.records {
		if filter.EmployeeID != "" && r.EmployeeID != filter.EmployeeID {
			continue
		}
		if !filter.From.IsZero() && r.WorkDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && r.WorkDate.After(filter.To) {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

type employees map[string]core.Employee

func (e employees) GetEmployee(_ context.Context, id string) (core.Employee, error) {
	emp, ok := e[id]
	if !ok {
		return core.Employee{}, core.ErrEmployeeNotFound
	}
	return emp, nil
}

func newTestService(at *time.Time) (*Service, *memoryStore) {
	store := &memoryStore{}
	svc := NewService(store, employees{"e1": {ID: "e1"}}, nil)
	svc.Location = time.UTC
	svc.Now = func() time.Time { return *at }
	return svc, store
}

func TestCheckInThenCheckOut(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC)
	svc, _ := newTestService(&at)

	rec, err := svc.CheckIn(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, StatusLate, rec.Status)

	_, err = svc.CheckIn(ctx, "u1", "e1")
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	at = time.Date(2025, 3, 3, 18, 15, 0, 0, time.UTC)
	rec, err = svc.CheckOut(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.InDelta(t, 8.0, rec.WorkHours, 0.001)
	assert.Equal(t, StatusLate, rec.Status)

	_, err = svc.CheckOut(ctx, "u1", "e1")
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	at := time.Date(2025, 3, 3, 18, 0, 0, 0, time.UTC)
	svc, _ := newTestService(&at)

	_, err := svc.CheckOut(context.Background(), "u1", "e1")
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = svc.CheckIn(context.Background(), "u1", "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateRecordComputesHoursAndRefusesDuplicates(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(&at)

	rec, err := svc.Create(ctx, "admin", RecordInput{EmployeeID: "e1", WorkDate: "2025-03-01", CheckIn: "08:55", CheckOut: "17:30"})
	require.NoError(t, err)
	assert.Equal(t, StatusEarlyLeave, rec.Status)
	assert.InDelta(t, 7.58, rec.WorkHours, 0.01)

	_, err = svc.Create(ctx, "admin", RecordInput{EmployeeID: "e1", WorkDate: "2025-03-01"})
	assert.ErrorIs(t, err, ErrDuplicateRecord)

	_, err = svc.Create(ctx, "admin", RecordInput{EmployeeID: "e1", WorkDate: "2025-03-02", CheckOut: "17:30"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, "admin", RecordInput{EmployeeID: "nobody", WorkDate: "2025-03-02"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMonthlySummaryCountsOnlyThatMonth(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(&at)

	for _, day := range []string{"2025-02-28", "2025-03-03", "2025-03-31"} {
		_, err := svc.Create(ctx, "admin", RecordInput{EmployeeID: "e1", WorkDate: day, CheckIn: "09:00", CheckOut: "18:00"})
		require.NoError(t, err)
	}

	summary, err := svc.MonthlySummary(ctx, "e1", 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Days)
	assert.Equal(t, 2, summary.ByStatus[StatusPresent])
	assert.InDelta(t, 16.0, summary.TotalHours, 0.001)

	_, err = svc.MonthlySummary(ctx, "e1", 2025, 13)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
