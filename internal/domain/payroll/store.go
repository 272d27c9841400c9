package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

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

const recordColumns = `r.id, r.employee_id, e.name, e.employee_number, r.period, r.year, r.month,
  r.basic_salary, r.position_allowance, r.meal_allowance, r.transport_allowance, r.family_allowance,
  r.overtime_allowance, r.night_allowance, r.holiday_allowance, r.other_allowances,
  r.performance_bonus, r.annual_bonus, r.special_bonus, r.union_fee, r.other_deductions,
  r.total_allowances, r.total_bonus, r.gross_pay, r.national_pension, r.health_insurance,
  r.employment_insurance, r.long_term_care, r.income_tax, r.local_tax, r.total_deductions, r.net_pay,
  r.work_days, r.overtime_hours, r.night_hours, r.holiday_hours, r.annual_leave_used, r.annual_leave_remaining,
  r.memo, r.status, r.is_final, r.finalized_at, r.created_by, r.created_at, r.updated_at`

const recordFrom = " FROM payroll_records r JOIN employees e ON e.id = r.employee_id"

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	b := &r.Breakdown
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.EmployeeNumber, &r.Period, &r.Year, &r.Month,
		&b.BasicSalary, &b.PositionAllowance, &b.MealAllowance, &b.TransportAllowance, &b.FamilyAllowance,
		&b.OvertimeAllowance, &b.NightAllowance, &b.HolidayAllowance, &b.OtherAllowances,
		&b.PerformanceBonus, &b.AnnualBonus, &b.SpecialBonus, &b.UnionFee, &b.OtherDeductions,
		&b.TotalAllowances, &b.TotalBonus, &b.GrossPay, &b.NationalPension, &b.HealthInsurance,
		&b.EmploymentInsurance, &b.LongTermCare, &b.IncomeTax, &b.LocalTax, &b.TotalDeductions, &b.NetPay,
		&r.WorkDays, &r.OvertimeHours, &r.NightHours, &r.HolidayHours, &r.AnnualLeaveUsed, &r.AnnualLeaveRemaining,
		&r.Memo, &r.Status, &r.IsFinal, &r.FinalizedAt, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, err
	}
	b.TaxableIncome = b.GrossPay.Sub(b.NationalPension).Sub(b.HealthInsurance).Sub(b.EmploymentInsurance)
	return r, nil
}

func recordArgs(r Record) []any {
	b := r.Breakdown
	return []any{
		b.BasicSalary, b.PositionAllowance, b.MealAllowance, b.TransportAllowance, b.FamilyAllowance,
		b.OvertimeAllowance, b.NightAllowance, b.HolidayAllowance, b.OtherAllowances,
		b.PerformanceBonus, b.AnnualBonus, b.SpecialBonus, b.UnionFee, b.OtherDeductions,
		b.TotalAllowances, b.TotalBonus, b.GrossPay, b.NationalPension, b.HealthInsurance,
		b.EmploymentInsurance, b.LongTermCare, b.IncomeTax, b.LocalTax, b.TotalDeductions, b.NetPay,
		r.WorkDays, r.OvertimeHours, r.NightHours, r.HolidayHours, r.AnnualLeaveUsed, r.AnnualLeaveRemaining,
		r.Memo, r.Status, r.IsFinal, r.FinalizedAt,
	}
}

func (s *Store) InsertRecord(ctx context.Context, r Record) (Record, error) {
	q := querier.From(ctx, s.DB)
	args := append([]any{r.EmployeeID, r.Period, r.Year, r.Month}, recordArgs(r)...)
	args = append(args, r.CreatedBy)
	var id string
	err := q.QueryRow(ctx, `
    INSERT INTO payroll_records (employee_id, period, year, month,
      basic_salary, position_allowance, meal_allowance, transport_allowance, family_allowance,
      overtime_allowance, night_allowance, holiday_allowance, other_allowances,
      performance_bonus, annual_bonus, special_bonus, union_fee, other_deductions,
      total_allowances, total_bonus, gross_pay, national_pension, health_insurance,
      employment_insurance, long_term_care, income_tax, local_tax, total_deductions, net_pay,
      work_days, overtime_hours, night_hours, holiday_hours, annual_leave_used, annual_leave_remaining,
      memo, status, is_final, finalized_at, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
            $21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39,$40)
    RETURNING id
  `, args...).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Record{}, ErrDuplicateRecord
	}
	if err != nil {
		return Record{}, err
	}
	return s.fetch(ctx, id, false)
}

func (s *Store) fetch(ctx context.Context, id string, lock bool) (Record, error) {
	sql := "SELECT " + recordColumns + recordFrom + " WHERE r.id = $1"
	if lock {
		sql += " FOR UPDATE OF r"
	}
	return scanRecord(querier.From(ctx, s.DB).QueryRow(ctx, sql, id))
}

// GetRecord locks the row when called inside a transaction.
func (s *Store) GetRecord(ctx context.Context, id string) (Record, error) {
	return s.fetch(ctx, id, true)
}

func (s *Store) UpdateRecord(ctx context.Context, r Record) (Record, error) {
	args := append([]any{r.ID}, recordArgs(r)...)
	tag, err := querier.From(ctx, s.DB).Exec(ctx, `
    UPDATE payroll_records
    SET basic_salary = $2, position_allowance = $3, meal_allowance = $4, transport_allowance = $5,
        family_allowance = $6, overtime_allowance = $7, night_allowance = $8, holiday_allowance = $9,
        other_allowances = $10, performance_bonus = $11, annual_bonus = $12, special_bonus = $13,
        union_fee = $14, other_deductions = $15, total_allowances = $16, total_bonus = $17, gross_pay = $18,
        national_pension = $19, health_insurance = $20, employment_insurance = $21, long_term_care = $22,
        income_tax = $23, local_tax = $24, total_deductions = $25, net_pay = $26,
        work_days = $27, overtime_hours = $28, night_hours = $29, holiday_hours = $30,
        annual_leave_used = $31, annual_leave_remaining = $32, memo = $33, status = $34,
        is_final = $35, finalized_at = $36, updated_at = now()
    WHERE id = $1
  `, args...)
	if err != nil {
		return Record{}, err
	}
	if tag.RowsAffected() == 0 {
		return Record{}, ErrRecordNotFound
	}
	return s.fetch(ctx, r.ID, false)
}

func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, "DELETE FROM payroll_records WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func buildWhere(filter RecordFilter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND r.employee_id::text = $%d", len(args))
	}
	if filter.Period != "" {
		args = append(args, filter.Period)
		where += fmt.Sprintf(" AND r.period = $%d", len(args))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		where += fmt.Sprintf(" AND r.year = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND r.status = $%d", len(args))
	}
	return where, args
}

func (s *Store) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, int, error) {
	q := querier.From(ctx, s.DB)
	where, args := buildWhere(filter)

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_records r"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := "SELECT " + recordColumns + recordFrom + where + " ORDER BY r.year DESC, r.month DESC, e.name"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *Store) Totals(ctx context.Context, filter RecordFilter) (Totals, error) {
	where, args := buildWhere(filter)
	var t Totals
	err := querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT COUNT(1), COALESCE(SUM(r.gross_pay), 0), COALESCE(SUM(r.net_pay), 0), COALESCE(SUM(r.total_deductions), 0)
    FROM payroll_records r`+where, args...).Scan(&t.Records, &t.GrossPay, &t.NetPay, &t.Deductions)
	return t, err
}

func (s *Store) PeriodStats(ctx context.Context, period string) ([]PeriodStats, error) {
	where := ""
	var args []any
	if period != "" {
		args = append(args, period)
		where = " WHERE period = $1"
	}
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT period, COUNT(1), COUNT(1) FILTER (WHERE is_final),
           COALESCE(SUM(gross_pay), 0), COALESCE(SUM(net_pay), 0), COALESCE(SUM(total_deductions), 0)
    FROM payroll_records`+where+`
    GROUP BY period
    ORDER BY period DESC
  `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []PeriodStats{}
	for rows.Next() {
		var p PeriodStats
		if err := rows.Scan(&p.Period, &p.EmployeeCount, &p.FinalizedCount, &p.TotalGrossPay, &p.TotalNetPay, &p.TotalDeduction); err != nil {
			return nil, err
		}
		if p.EmployeeCount > 0 {
			p.AverageGross = p.TotalGrossPay.Div(decimal.NewFromInt(int64(p.EmployeeCount))).Round(2)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
