package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/core"
	"hrms/internal/domain/leave"
	"hrms/internal/domain/performance"
	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Headcount(ctx context.Context) (Headcount, error) {
	var h Headcount
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM employees),
      (SELECT COUNT(1) FROM employees WHERE status = $1),
      (SELECT COUNT(1) FROM departments WHERE is_active)
  `, core.EmployeeStatusActive).Scan(&h.Employees, &h.ActiveEmployees, &h.Departments)
	return h, err
}

func (s *Store) Attendance(ctx context.Context, r Range) (AttendanceStats, error) {
	var a AttendanceStats
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
      COALESCE(AVG(work_hours), 0),
      COUNT(1) FILTER (WHERE status = $3),
      COUNT(1) FILTER (WHERE status = $4)
    FROM attendance_records
    WHERE work_date >= $1 AND work_date < $2
  `, r.From, r.To, attendance.StatusLate, attendance.StatusAbsent).Scan(&a.Records, &a.AvgWorkHours, &a.Late, &a.Absent)
	return a, err
}

func (s *Store) Leave(ctx context.Context, r Range) (LeaveStats, error) {
	var l LeaveStats
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(used_days), 0), COUNT(1),
      (SELECT COUNT(1) FROM leave_requests WHERE status = $3)
    FROM annual_leave_usages
    WHERE usage_date >= $1 AND usage_date < $2
  `, r.From, r.To, leave.StatusPending).Scan(&l.DaysUsed, &l.Usages, &l.PendingRequests)
	return l, err
}

func (s *Store) Evaluations(ctx context.Context, r Range) (EvaluationStats, error) {
	var e EvaluationStats
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
      COUNT(1) FILTER (WHERE status IN ($3, $4)),
      COALESCE((
        SELECT AVG(res.total_score) FROM evaluation_results res
        JOIN evaluations ev ON ev.id = res.evaluation_id
        WHERE res.status IN ($5, $6) AND ev.created_at >= $1 AND ev.created_at < $2
      ), 0)
    FROM evaluations
    WHERE created_at >= $1 AND created_at < $2
  `, r.From, r.To,
		performance.EvaluationCompleted, performance.EvaluationClosed,
		performance.ResultCompleted, performance.ResultApproved,
	).Scan(&e.Evaluations, &e.Completed, &e.AvgScore)
	return e, err
}

func (s *Store) Payroll(ctx context.Context, r Range) (PayrollStats, error) {
	from, to := r.PeriodKeys()
	var p PayrollStats
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COALESCE(SUM(gross_pay), 0), COALESCE(SUM(net_pay), 0), COALESCE(SUM(total_deductions), 0)
    FROM payroll_records
    WHERE year * 100 + month BETWEEN $1 AND $2
  `, from, to).Scan(&p.Records, &p.TotalGross, &p.TotalNet, &p.TotalDeductions)
	return p, err
}

func (s *Store) Bonus(ctx context.Context, r Range) (BonusStats, error) {
	var b BonusStats
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COALESCE(SUM(total_amount), 0),
      (SELECT COUNT(1) FROM bonus_distributions d
       JOIN bonus_calculations c ON c.id = d.calculation_id
       WHERE c.created_at >= $1 AND c.created_at < $2)
    FROM bonus_calculations
    WHERE created_at >= $1 AND created_at < $2
  `, r.From, r.To).Scan(&b.Calculations, &b.TotalAmount, &b.Distributions)
	return b, err
}

// Departments returns one row per active department with its pay and leave
// totals for r.
func (s *Store) Departments(ctx context.Context, r Range) ([]DepartmentStat, error) {
	from, to := r.PeriodKeys()
	rows, err := s.DB.Query(ctx, `
    SELECT d.id, d.name,
      (SELECT COUNT(1) FROM employees e WHERE e.department_id = d.id),
      COALESCE((SELECT SUM(p.net_pay) FROM payroll_records p
        JOIN employees e ON e.id = p.employee_id
        WHERE e.department_id = d.id AND p.year * 100 + p.month BETWEEN $3 AND $4), 0),
      (SELECT COUNT(1) FROM payroll_records p
        JOIN employees e ON e.id = p.employee_id
        WHERE e.department_id = d.id AND p.year * 100 + p.month BETWEEN $3 AND $4),
      COALESCE((SELECT SUM(u.used_days) FROM annual_leave_usages u
        JOIN employees e ON e.id = u.employee_id
        WHERE e.department_id = d.id AND u.usage_date >= $1 AND u.usage_date < $2), 0)
    FROM departments d
    WHERE d.is_active
    ORDER BY d.name
  `, r.From, r.To, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DepartmentStat
	for rows.Next() {
		var (
			d        DepartmentStat
			payCount int
		)
		if err := rows.Scan(&d.ID, &d.Name, &d.Employees, &d.TotalNetPay, &payCount, &d.LeaveDays); err != nil {
			return nil, err
		}
		if payCount > 0 {
			d.AvgNetPay = d.TotalNetPay.Div(decimal.NewFromInt(int64(payCount)))
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) PayrollTrend(ctx context.Context, r Range) ([]PayrollTrendPoint, error) {
	from, to := r.PeriodKeys()
	rows, err := s.DB.Query(ctx, `
    SELECT year, month, COUNT(1), SUM(gross_pay), SUM(net_pay), SUM(total_deductions)
    FROM payroll_records
    WHERE year * 100 + month BETWEEN $1 AND $2
    GROUP BY year, month
    ORDER BY year, month
  `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PayrollTrendPoint
	for rows.Next() {
		var p PayrollTrendPoint
		if err := rows.Scan(&p.Year, &p.Month, &p.Records, &p.TotalGross, &p.TotalNet, &p.TotalDeductions); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) AttendanceTrend(ctx context.Context, r Range) ([]AttendanceTrendPoint, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT EXTRACT(YEAR FROM work_date)::int AS y, EXTRACT(MONTH FROM work_date)::int AS m,
      COUNT(1),
      COUNT(1) FILTER (WHERE status = $3),
      COUNT(1) FILTER (WHERE status = $4),
      COUNT(1) FILTER (WHERE status = $5),
      COALESCE(AVG(work_hours), 0)
    FROM attendance_records
    WHERE work_date >= $1 AND work_date < $2
    GROUP BY y, m
    ORDER BY y, m
  `, r.From, r.To, attendance.StatusPresent, attendance.StatusLate, attendance.StatusAbsent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttendanceTrendPoint
	for rows.Next() {
		var p AttendanceTrendPoint
		if err := rows.Scan(&p.Year, &p.Month, &p.Records, &p.OnTime, &p.Late, &p.Absent, &p.AvgHours); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) EmployeeCounts(ctx context.Context, employeeID string, r Range, month Range) (EmployeeDashboard, error) {
	from, to := r.PeriodKeys()
	d := EmployeeDashboard{EmployeeID: employeeID}
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM leave_requests WHERE employee_id = $1 AND status = $2),
      (SELECT COUNT(1) FROM payroll_records WHERE employee_id = $1 AND year * 100 + month BETWEEN $3 AND $4),
      (SELECT COUNT(1) FROM evaluation_results WHERE employee_id = $1 AND status IN ($5, $6)),
      (SELECT COUNT(1) FROM attendance_records WHERE employee_id = $1 AND work_date >= $7 AND work_date < $8)
  `, employeeID, leave.StatusPending, from, to,
		performance.ResultNotStarted, performance.ResultInProgress,
		month.From, month.To,
	).Scan(&d.PendingLeave, &d.PayrollRecords, &d.PendingEvaluations, &d.AttendanceThisMonth)
	return d, err
}
