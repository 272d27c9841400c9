package payroll

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/platform/apperr"
)

type Employees interface {
	GetEmployee(ctx context.Context, id string) (core.Employee, error)
}

type Service struct {
	Store     StoreAPI
	Employees Employees
	Audit     audit.Sink
	Rates     Rates
	Now       func() time.Time
}

func NewService(store StoreAPI, employees Employees, sink audit.Sink, rates Rates) *Service {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Service{Store: store, Employees: employees, Audit: sink, Rates: rates, Now: time.Now}
}

func ParsePeriod(raw string) (year, month int, err error) {
	t, perr := time.Parse(periodLayout, strings.TrimSpace(raw))
	if perr != nil {
		return 0, 0, apperr.Validation("period", "must be YYYY-MM")
	}
	return t.Year(), int(t.Month()), nil
}

// merge applies the non-nil amounts of in over base and rejects negatives.
func merge(base Input, in RecordInput) (Input, error) {
	fields := []struct {
		name string
		src  *decimal.Decimal
		dst  *decimal.Decimal
	}{
		{"basicSalary", in.BasicSalary, &base.BasicSalary},
		{"positionAllowance", in.PositionAllowance, &base.PositionAllowance},
		{"mealAllowance", in.MealAllowance, &base.MealAllowance},
		{"transportAllowance", in.TransportAllowance, &base.TransportAllowance},
		{"familyAllowance", in.FamilyAllowance, &base.FamilyAllowance},
		{"overtimeAllowance", in.OvertimeAllowance, &base.OvertimeAllowance},
		{"nightAllowance", in.NightAllowance, &base.NightAllowance},
		{"holidayAllowance", in.HolidayAllowance, &base.HolidayAllowance},
		{"otherAllowances", in.OtherAllowances, &base.OtherAllowances},
		{"performanceBonus", in.PerformanceBonus, &base.PerformanceBonus},
		{"annualBonus", in.AnnualBonus, &base.AnnualBonus},
		{"specialBonus", in.SpecialBonus, &base.SpecialBonus},
		{"unionFee", in.UnionFee, &base.UnionFee},
		{"otherDeductions", in.OtherDeductions, &base.OtherDeductions},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		if f.src.IsNegative() {
			return Input{}, apperr.Validation(f.name, "must not be negative")
		}
		*f.dst = *f.src
	}
	return base, nil
}

func applyCounters(r *Record, in RecordInput) {
	if in.WorkDays != nil {
		r.WorkDays = *in.WorkDays
	}
	if in.OvertimeHours != nil {
		r.OvertimeHours = *in.OvertimeHours
	}
	if in.NightHours != nil {
		r.NightHours = *in.NightHours
	}
	if in.HolidayHours != nil {
		r.HolidayHours = *in.HolidayHours
	}
	if in.AnnualLeaveUsed != nil {
		r.AnnualLeaveUsed = *in.AnnualLeaveUsed
	}
	if in.AnnualLeaveRemaining != nil {
		r.AnnualLeaveRemaining = *in.AnnualLeaveRemaining
	}
	if in.Memo != nil {
		r.Memo = *in.Memo
	}
}

func zeroInput() Input {
	z := decimal.Zero
	return Input{
		BasicSalary: z, PositionAllowance: z, MealAllowance: z, TransportAllowance: z, FamilyAllowance: z,
		OvertimeAllowance: z, NightAllowance: z, HolidayAllowance: z, OtherAllowances: z,
		PerformanceBonus: z, AnnualBonus: z, SpecialBonus: z, UnionFee: z, OtherDeductions: z,
	}
}

func (s *Service) CreateRecord(ctx context.Context, actorID string, in RecordInput) (Record, error) {
	if strings.TrimSpace(in.EmployeeID) == "" {
		return Record{}, apperr.Validation("employeeId", "is required")
	}
	if strings.TrimSpace(in.Period) == "" {
		return Record{}, apperr.Validation("period", "is required")
	}
	if in.BasicSalary == nil {
		return Record{}, apperr.Validation("basicSalary", "is required")
	}
	year, month, err := ParsePeriod(in.Period)
	if err != nil {
		return Record{}, err
	}
	amounts, err := merge(zeroInput(), in)
	if err != nil {
		return Record{}, err
	}
	if _, err := s.Employees.GetEmployee(ctx, in.EmployeeID); err != nil {
		return Record{}, err
	}

	r := Record{
		EmployeeID: in.EmployeeID,
		Period:     strings.TrimSpace(in.Period),
		Year:       year,
		Month:      month,
		Breakdown:  Compute(amounts, s.Rates),
		Status:     StatusDraft,
	}
	applyCounters(&r, in)
	if actorID != "" {
		r.CreatedBy = &actorID
	}
	created, err := s.Store.InsertRecord(ctx, r)
	if err != nil {
		return Record{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "payroll_record", EntityID: created.ID, Message: "payroll record created for " + created.Period, After: created})
	return created, nil
}

// UpdateRecord merges the given fields and recomputes every derived amount.
// Employee and period are fixed once created.
func (s *Service) UpdateRecord(ctx context.Context, actorID, id string, in RecordInput) (Record, error) {
	var before, updated Record
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		current, err := s.Store.GetRecord(ctx, id)
		if err != nil {
			return err
		}
		if current.IsFinal {
			return ErrRecordFinalized
		}
		amounts, err := merge(current.Input, in)
		if err != nil {
			return err
		}
		before = current
		next := current
		next.Breakdown = Compute(amounts, s.Rates)
		applyCounters(&next, in)
		updated, err = s.Store.UpdateRecord(ctx, next)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "payroll_record", EntityID: id, Message: "payroll record updated", Before: before.Breakdown, After: updated.Breakdown})
	return updated, nil
}

func (s *Service) FinalizeRecord(ctx context.Context, actorID, id string) (Record, error) {
	var finalized Record
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		current, err := s.Store.GetRecord(ctx, id)
		if err != nil {
			return err
		}
		if current.IsFinal {
			return ErrRecordFinalized
		}
		now := s.Now()
		current.IsFinal = true
		current.Status = StatusFinalized
		current.FinalizedAt = &now
		finalized, err = s.Store.UpdateRecord(ctx, current)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionFinalize, EntityType: "payroll_record", EntityID: id, Message: "payroll record finalized for " + finalized.Period})
	return finalized, nil
}

func (s *Service) DeleteRecord(ctx context.Context, actorID, id string) error {
	var deleted Record
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		current, err := s.Store.GetRecord(ctx, id)
		if err != nil {
			return err
		}
		if current.IsFinal {
			return ErrRecordFinalized
		}
		deleted = current
		return s.Store.DeleteRecord(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionDelete, EntityType: "payroll_record", EntityID: id, Message: "payroll record deleted", Before: deleted})
	return nil
}

// GetRecord lets users read only their own records.
func (s *Service) GetRecord(ctx context.Context, user auth.UserContext, id string) (Record, error) {
	r, err := s.Store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !user.IsAdmin() && r.EmployeeID != user.EmployeeID {
		return Record{}, ErrNotOwner
	}
	return r, nil
}

func withAverages(t Totals) Totals {
	t.AverageGross, t.AverageNet = decimal.Zero, decimal.Zero
	if t.Records > 0 {
		n := decimal.NewFromInt(int64(t.Records))
		t.AverageGross = t.GrossPay.Div(n).Round(2)
		t.AverageNet = t.NetPay.Div(n).Round(2)
	}
	return t
}

func (s *Service) ListRecords(ctx context.Context, user auth.UserContext, filter RecordFilter) (RecordList, error) {
	if !user.IsAdmin() {
		if user.EmployeeID == "" {
			return RecordList{}, ErrNoEmployee
		}
		filter.EmployeeID = user.EmployeeID
	}
	records, total, err := s.Store.ListRecords(ctx, filter)
	if err != nil {
		return RecordList{}, err
	}
	totals, err := s.Store.Totals(ctx, RecordFilter{EmployeeID: filter.EmployeeID, Period: filter.Period, Year: filter.Year, Status: filter.Status})
	if err != nil {
		return RecordList{}, err
	}
	return RecordList{Records: records, Total: total, Totals: withAverages(totals)}, nil
}

// MyRecords lists the caller's records for a year, the current one by default.
func (s *Service) MyRecords(ctx context.Context, employeeID string, year int) (MyRecords, error) {
	if employeeID == "" {
		return MyRecords{}, ErrNoEmployee
	}
	if year == 0 {
		year = s.Now().Year()
	}
	filter := RecordFilter{EmployeeID: employeeID, Year: year}
	records, _, err := s.Store.ListRecords(ctx, filter)
	if err != nil {
		return MyRecords{}, err
	}
	totals, err := s.Store.Totals(ctx, filter)
	if err != nil {
		return MyRecords{}, err
	}
	return MyRecords{Records: records, Year: year, Yearly: withAverages(totals)}, nil
}

// Periods lists every period that has records, newest first, with the
// statistics of each.
func (s *Service) Periods(ctx context.Context) (PeriodList, error) {
	stats, err := s.Store.PeriodStats(ctx, "")
	if err != nil {
		return PeriodList{}, err
	}
	slices.SortFunc(stats, func(a, b PeriodStats) int { return strings.Compare(b.Period, a.Period) })
	out := PeriodList{Periods: make([]string, 0, len(stats)), Statistics: stats}
	for _, p := range stats {
		out.Periods = append(out.Periods, p.Period)
	}
	return out, nil
}

// PeriodStatistics summarizes one period, or every period when empty.
func (s *Service) PeriodStatistics(ctx context.Context, period string) ([]PeriodStats, error) {
	if period != "" {
		if _, _, err := ParsePeriod(period); err != nil {
			return nil, err
		}
	}
	return s.Store.PeriodStats(ctx, period)
}

// Calculate previews a breakdown with the configured rates and stores nothing.
func (s *Service) Calculate(in Input) (Breakdown, error) {
	if err := in.Validate(); err != nil {
		return Breakdown{}, err
	}
	return Compute(in, s.Rates), nil
}
