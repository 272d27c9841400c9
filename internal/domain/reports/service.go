package reports

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/leave"
	"hrms/internal/platform/apperr"
)

type LeaveBalances interface {
	Balance(ctx context.Context, employeeID string, year int) (leave.Balance, error)
}

type Activity interface {
	List(ctx context.Context, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type Service struct {
	Store    StoreAPI
	Leave    LeaveBalances
	Activity Activity
	Now      func() time.Time
}

func NewService(store StoreAPI, balances LeaveBalances, activity Activity) *Service {
	return &Service{Store: store, Leave: balances, Activity: activity, Now: time.Now}
}

const (
	recentActivityLimit = 10
	defaultTrendMonths  = 12
	maxTrendMonths      = 36
)

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// percent is part/total*100 rounded to one decimal; an empty total is 0.
func percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return round1(part / total * 100)
}

func average(total decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(n)), 2)
}

func (a *AttendanceStats) finish() {
	a.AvgWorkHours = round1(a.AvgWorkHours)
	if a.Records == 0 {
		a.AttendanceRate = 0
		return
	}
	a.AttendanceRate = round1(100 - percent(float64(a.Absent), float64(a.Records)))
}

func (e *EvaluationStats) finish() {
	e.CompletionRate = percent(float64(e.Completed), float64(e.Evaluations))
	e.AvgScore = round1(e.AvgScore)
}

func (p *PayrollStats) finish() {
	p.AvgNet = average(p.TotalNet, p.Records)
}

func periodLabel(year, month int) string {
	if month == 0 {
		return fmt.Sprintf("%04d", year)
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Overview gathers the admin landing page: this month for attendance and
// payroll, this year for leave, evaluations and bonuses.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	now := s.Now()
	month := MonthRange(now.Year(), int(now.Month()))
	year := MonthRange(now.Year(), 0)

	out := Overview{Period: periodLabel(now.Year(), int(now.Month()))}
	var err error
	if out.Headcount, err = s.Store.Headcount(ctx); err != nil {
		return Overview{}, err
	}
	if out.Attendance, err = s.Store.Attendance(ctx, month); err != nil {
		return Overview{}, err
	}
	out.Attendance.finish()
	if out.Leave, err = s.Store.Leave(ctx, year); err != nil {
		return Overview{}, err
	}
	out.Leave.DaysUsed = round1(out.Leave.DaysUsed)
	out.Leave.AvgPerEmployee = round1(out.Leave.DaysUsed / math.Max(float64(out.Headcount.Employees), 1))
	if out.Evaluation, err = s.Store.Evaluations(ctx, year); err != nil {
		return Overview{}, err
	}
	out.Evaluation.finish()
	if out.Payroll, err = s.Store.Payroll(ctx, month); err != nil {
		return Overview{}, err
	}
	out.Payroll.finish()
	if out.Bonus, err = s.Store.Bonus(ctx, year); err != nil {
		return Overview{}, err
	}

	out.RecentActivities = []audit.Event{}
	if s.Activity != nil {
		events, err := s.Activity.List(ctx, audit.Filter{}, false, recentActivityLimit, 0)
		if err != nil {
			slog.Warn("recent activity lookup failed", "err", err)
		} else if events != nil {
			out.RecentActivities = events
		}
	}
	return out, nil
}

// Summary reports one month, or the whole year when month is zero.
func (s *Service) Summary(ctx context.Context, year, month int) (Summary, error) {
	if year == 0 {
		year = s.Now().Year()
	}
	if year < 2000 || year > 2100 {
		return Summary{}, apperr.Validation("year", "must be between 2000 and 2100")
	}
	if month < 0 || month > 12 {
		return Summary{}, apperr.Validation("month", "must be between 0 and 12")
	}
	r := MonthRange(year, month)

	out := Summary{Period: periodLabel(year, month)}
	var err error
	if out.Headcount, err = s.Store.Headcount(ctx); err != nil {
		return Summary{}, err
	}
	if out.Attendance, err = s.Store.Attendance(ctx, r); err != nil {
		return Summary{}, err
	}
	out.Attendance.finish()
	if out.Payroll, err = s.Store.Payroll(ctx, r); err != nil {
		return Summary{}, err
	}
	out.Payroll.finish()
	if out.Evaluation, err = s.Store.Evaluations(ctx, r); err != nil {
		return Summary{}, err
	}
	out.Evaluation.finish()
	if out.Bonus, err = s.Store.Bonus(ctx, r); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// DepartmentStats covers the current year.
func (s *Service) DepartmentStats(ctx context.Context) ([]DepartmentStat, error) {
	stats, err := s.Store.Departments(ctx, MonthRange(s.Now().Year(), 0))
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].AvgNetPay = stats[i].AvgNetPay.Round(2)
		stats[i].AvgLeaveDays = round1(stats[i].LeaveDays / math.Max(float64(stats[i].Employees), 1))
	}
	if stats == nil {
		stats = []DepartmentStat{}
	}
	return stats, nil
}

// PayrollTrend returns monthly totals for the last months months, the
// current month included. Months without records are omitted.
func (s *Service) PayrollTrend(ctx context.Context, months int) ([]PayrollTrendPoint, error) {
	if months <= 0 {
		months = defaultTrendMonths
	}
	months = min(months, maxTrendMonths)
	now := s.Now()
	current := MonthRange(now.Year(), int(now.Month()))
	r := Range{From: current.From.AddDate(0, 1-months, 0), To: current.To}

	points, err := s.Store.PayrollTrend(ctx, r)
	if err != nil {
		return nil, err
	}
	for i := range points {
		p := &points[i]
		p.Period = periodLabel(p.Year, p.Month)
		p.AvgNet = average(p.TotalNet, p.Records)
		gross, _ := p.TotalGross.Float64()
		deductions, _ := p.TotalDeductions.Float64()
		p.DeductionRate = percent(deductions, gross)
	}
	if points == nil {
		points = []PayrollTrendPoint{}
	}
	return points, nil
}

// AttendanceTrend returns monthly attendance for the last twelve months,
// the current month included. The rate counts every non-absent record.
func (s *Service) AttendanceTrend(ctx context.Context) (AttendanceTrend, error) {
	now := s.Now()
	current := MonthRange(now.Year(), int(now.Month()))
	points, err := s.Store.AttendanceTrend(ctx, Range{From: current.From.AddDate(0, 1-defaultTrendMonths, 0), To: current.To})
	if err != nil {
		return AttendanceTrend{}, err
	}

	out := AttendanceTrend{ChartData: []AttendanceTrendPoint{}}
	var rates, hours float64
	for _, p := range points {
		p.Period = periodLabel(p.Year, p.Month)
		p.AvgHours = round1(p.AvgHours)
		p.AttendanceRate = percent(float64(p.Records-p.Absent), float64(p.Records))
		rates += p.AttendanceRate
		hours += p.AvgHours
		out.ChartData = append(out.ChartData, p)
	}
	out.Summary.TotalMonths = len(out.ChartData)
	if n := float64(len(out.ChartData)); n > 0 {
		out.Summary.AvgAttendanceRate = round1(rates / n)
		out.Summary.AvgWorkHours = round1(hours / n)
	}
	return out, nil
}

func (s *Service) EmployeeDashboard(ctx context.Context, employeeID string) (EmployeeDashboard, error) {
	if employeeID == "" {
		return EmployeeDashboard{}, ErrNoEmployee
	}
	now := s.Now()
	out, err := s.Store.EmployeeCounts(ctx, employeeID, MonthRange(now.Year(), 0), MonthRange(now.Year(), int(now.Month())))
	if err != nil {
		return EmployeeDashboard{}, err
	}
	out.EmployeeID = employeeID
	out.Year = now.Year()
	balance, err := s.Leave.Balance(ctx, employeeID, now.Year())
	if err != nil {
		return EmployeeDashboard{}, err
	}
	out.LeaveRemaining = balance.Remaining
	return out, nil
}

// Download renders a report file. It returns the file name and content type
// alongside the body.
func (s *Service) Download(ctx context.Context, req DownloadRequest) (string, string, []byte, error) {
	if req.ReportType == "" {
		req.ReportType = "summary"
	}
	if req.ReportType != "summary" {
		return "", "", nil, ErrUnknownReport
	}
	if req.Format == "" {
		req.Format = "csv"
	}
	summary, err := s.Summary(ctx, req.Year, req.Month)
	if err != nil {
		return "", "", nil, err
	}
	name := "hr_report_" + req.ReportType + "_" + summary.Period
	switch req.Format {
	case "pdf":
		body, err := RenderSummaryPDF(summary)
		return name + ".pdf", "application/pdf", body, err
	case "csv":
		body, err := RenderSummaryCSV(summary)
		return name + ".csv", "text/csv; charset=utf-8", body, err
	default:
		return "", "", nil, apperr.Validation("format", "must be csv or pdf")
	}
}
