package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/platform/apperr"
)

type memoryStore struct {
	records map[string]Record
	seq     int
}

func (m *memoryStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	saved := make(map[string]Record, len(m.records))
	for k, v := range m.records {
		saved[k] = v
	}
	if err := fn(ctx); err != nil {
		m.records = saved
		return err
	}
	return nil
}

func (m *memoryStore) InsertRecord(_ context.Context, r Record) (Record, error) {
	for _, existing := range m.records {
		if existing.EmployeeID == r.EmployeeID && existing.Period == r.Period {
			return Record{}, ErrDuplicateRecord
		}
	}
	m.seq++
	r.ID = fmt.Sprintf("pr%d", m.seq)
	r.EmployeeName = "Employee " + r.EmployeeID
	m.records[r.ID] = r
	return r, nil
}

func (m *memoryStore) GetRecord(_ context.Context, id string) (Record, error) {
	r, ok := m.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return r, nil
}

func (m *memoryStore) UpdateRecord(_ context.Context, r Record) (Record, error) {
	if _, ok := m.records[r.ID]; !ok {
		return Record{}, ErrRecordNotFound
	}
	m.records[r.ID] = r
	return r, nil
}

func (m *memoryStore) DeleteRecord(_ context.Context, id string) error {
	delete(m.records, id)
	return nil
}

func (m *memoryStore) match(filter RecordFilter) []Record {
	out := []Record{}
	for _, r := range m.records {
		if filter.EmployeeID != "" && r.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Period != "" && r.Period != filter.Period {
			continue
		}
		if filter.Year != 0 && r.Year != filter.Year {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryStore) ListRecords(_ context.Context, filter RecordFilter) ([]Record, int, error) {
	out := m.match(filter)
	return out, len(out), nil
}

func (m *memoryStore) Totals(_ context.Context, filter RecordFilter) (Totals, error) {
	t := Totals{GrossPay: decimal.Zero, NetPay: decimal.Zero, Deductions: decimal.Zero}
	for _, r := range m.match(filter) {
		t.Records++
		t.GrossPay = t.GrossPay.Add(r.GrossPay)
		t.NetPay = t.NetPay.Add(r.NetPay)
		t.Deductions = t.Deductions.Add(r.TotalDeductions)
	}
	return t, nil
}

func (m *memoryStore) PeriodStats(_ context.Context, period string) ([]PeriodStats, error) {
	stats := map[string]*PeriodStats{}
	for _, r := range m.match(RecordFilter{Period: period}) {
		p, ok := stats[r.Period]
		if !ok {
			p = &PeriodStats{Period: r.Period}
			stats[r.Period] = p
		}
		p.EmployeeCount++
		if r.IsFinal {
			p.FinalizedCount++
		}
		p.TotalGrossPay = p.TotalGrossPay.Add(r.GrossPay)
	}
	out := []PeriodStats{}
	for _, p := range stats {
		out = append(out, *p)
	}
	return out, nil
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

func amount(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func newTestService() (*Service, *memoryStore) {
	store := &memoryStore{records: map[string]Record{}}
	svc := NewService(store, employees{"e1": true, "e2": true}, nil, DefaultRates())
	svc.Now = func() time.Time { return time.Date(2025, 2, 28, 18, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestCreateRecordComputesBreakdown(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	rec, err := svc.CreateRecord(ctx, "admin", RecordInput{EmployeeID: "e1", Period: "2025-02", BasicSalary: amount("3000000")})
	require.NoError(t, err)
	assert.Equal(t, 2025, rec.Year)
	assert.Equal(t, 2, rec.Month)
	assert.Equal(t, StatusDraft, rec.Status)
	assert.True(t, rec.IncomeTax.Equal(decimal.RequireFromString("301747.5")))
	assert.True(t, rec.GrossPay.Sub(rec.TotalDeductions).Equal(rec.NetPay))

	_, err = svc.CreateRecord(ctx, "admin", RecordInput{EmployeeID: "e1", Period: "2025-02", BasicSalary: amount("1")})
	assert.ErrorIs(t, err, ErrDuplicateRecord)
}

func TestCreateRecordValidates(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	cases := []struct {
		field string
		in    RecordInput
	}{
		{"employeeId", RecordInput{Period: "2025-02", BasicSalary: amount("1")}},
		{"period", RecordInput{EmployeeID: "e1", BasicSalary: amount("1")}},
		{"basicSalary", RecordInput{EmployeeID: "e1", Period: "2025-02"}},
		{"period", RecordInput{EmployeeID: "e1", Period: "2025-13", BasicSalary: amount("1")}},
		{"mealAllowance", RecordInput{EmployeeID: "e1", Period: "2025-02", BasicSalary: amount("1"), MealAllowance: amount("-1")}},
	}
	for _, tc := range cases {
		_, err := svc.CreateRecord(ctx, "admin", tc.in)
		appErr, ok := apperr.As(err)
		require.True(t, ok, "%s: %v", tc.field, err)
		assert.Equal(t, tc.field, appErr.Field)
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	}

	_, err := svc.CreateRecord(ctx, "admin", RecordInput{EmployeeID: "e9", Period: "2025-02", BasicSalary: amount("1")})
	assert.ErrorIs(t, err, core.ErrEmployeeNotFound)
	assert.Empty(t, store.records)
}

func TestUpdateRecordMergesAndRecomputes(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	rec, err := svc.CreateRecord(ctx, "admin", RecordInput{EmployeeID: "e1", Period: "2025-02", BasicSalary: amount("3000000"), MealAllowance: amount("200000")})
	require.NoError(t, err)

	memo := "bonus month"
	updated, err := svc.UpdateRecord(ctx, "admin", rec.ID, RecordInput{PerformanceBonus: amount("1000000"), Memo: &memo})
	require.NoError(t, err)
	assert.True(t, updated.MealAllowance.Equal(decimal.NewFromInt(200000)), "untouched fields are kept")
	assert.True(t, updated.GrossPay.Equal(decimal.NewFromInt(4200000)))
	assert.True(t, updated.IncomeTax.GreaterThan(rec.IncomeTax))
	assert.Equal(t, "bonus month", updated.Memo)
}

func TestFinalizedRecordIsImmutable(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	rec, err := svc.CreateRecord(ctx, "admin", RecordInput{EmployeeID: "e1", Period: "2025-02", BasicSalary: amount("3000000")})
	require.NoError(t, err)

	final, err := svc.FinalizeRecord(ctx, "admin", rec.ID)
	require.NoError(t, err)
	assert.True(t, final.IsFinal)
	assert.Equal(t, StatusFinalized, final.Status)
	require.NotNil(t, final.FinalizedAt)

	_, err = svc.UpdateRecord(ctx, "admin", rec.ID, RecordInput{BasicSalary: amount("1")})
	assert.ErrorIs(t, err, ErrRecordFinalized)
	assert.True(t, errors.Is(err, apperr.ErrImmutable))
	assert.True(t, store.records[rec.ID].BasicSalary.Equal(decimal.NewFromInt(3000000)))

	_, err = svc.FinalizeRecord(ctx, "admin", rec.ID)
	assert.ErrorIs(t, err, ErrRecordFinalized)
	assert.ErrorIs(t, svc.DeleteRecord(ctx, "admin", rec.ID), ErrRecordFinalized)
	assert.Len(t, store.records, 1)
}

func TestUsersSeeOnlyTheirRecords(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	mine, err := svc.CreateRecord(ctx, "admin", RecordInput{EmployeeID: "e1", Period: "2025-01", BasicSalary: amount("2000000")})
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, "admin", RecordInput{EmployeeID: "e1", Period: "2025-02", BasicSalary: amount("2000000")})
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, "admin", RecordInput{EmployeeID: "e2", Period: "2025-01", BasicSalary: amount("2500000")})
	require.NoError(t, err)

	_, err = svc.GetRecord(ctx, lee, mine.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	_, err = svc.GetRecord(ctx, kim, mine.ID)
	assert.NoError(t, err)

	list, err := svc.ListRecords(ctx, kim, RecordFilter{EmployeeID: "e2"})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total, "the employee filter is forced to the caller")

	all, err := svc.ListRecords(ctx, admin, RecordFilter{Period: "2025-01"})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Totals.Records)
	assert.True(t, all.Totals.GrossPay.Equal(decimal.NewFromInt(4500000)))
	assert.True(t, all.Totals.AverageGross.Equal(decimal.NewFromInt(2250000)))

	my, err := svc.MyRecords(ctx, "e1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2025, my.Year)
	assert.Equal(t, 2, my.Yearly.Records)

	_, err = svc.MyRecords(ctx, "", 0)
	assert.ErrorIs(t, err, ErrNoEmployee)
}

func TestPayslipAndExport(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	rec, err := svc.CreateRecord(ctx, "admin", RecordInput{EmployeeID: "e1", Period: "2025-02", BasicSalary: amount("3000000")})
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, "admin", RecordInput{EmployeeID: "e2", Period: "2025-02", BasicSalary: amount("4000000")})
	require.NoError(t, err)

	_, pdf, err := svc.Payslip(ctx, kim, rec.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, _, err = svc.Payslip(ctx, lee, rec.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	data, err := svc.ExportPeriod(ctx, "2025-02")
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = book.Close() }()

	rows, err := book.GetRows("Payroll 2025-02")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Employee number", rows[0][0])
	assert.Equal(t, "2025-02", rows[1][2])
	assert.Equal(t, "3000000", rows[1][3])

	_, err = svc.ExportPeriod(ctx, "Feb 2025")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestPeriodsNewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, in := range []RecordInput{
		{EmployeeID: "e1", Period: "2025-01", BasicSalary: amount("3000000")},
		{EmployeeID: "e2", Period: "2025-01", BasicSalary: amount("2000000")},
		{EmployeeID: "e1", Period: "2024-12", BasicSalary: amount("3000000")},
		{EmployeeID: "e1", Period: "2025-02", BasicSalary: amount("3000000")},
	} {
		_, err := svc.CreateRecord(ctx, "admin", in)
		require.NoError(t, err)
	}

	list, err := svc.Periods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02", "2025-01", "2024-12"}, list.Periods)
	require.Len(t, list.Statistics, 3)
	assert.Equal(t, 2, list.Statistics[1].EmployeeCount)
}
