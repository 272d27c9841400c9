package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"hrms/internal/domain/audit"
)

// Range is a half-open [From, To) window of calendar months.
type Range struct {
	From time.Time
	To   time.Time
}

// MonthRange covers one month, or the whole year when month is zero.
func MonthRange(year, month int) Range {
	if month == 0 {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return Range{From: from, To: from.AddDate(1, 0, 0)}
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Range{From: from, To: from.AddDate(0, 1, 0)}
}

// PeriodKeys returns the inclusive year*100+month bounds payroll rows are
// filtered on.
func (r Range) PeriodKeys() (int, int) {
	last := r.To.AddDate(0, 0, -1)
	return r.From.Year()*100 + int(r.From.Month()), last.Year()*100 + int(last.Month())
}

type Headcount struct {
	Employees       int `json:"totalEmployees"`
	ActiveEmployees int `json:"activeEmployees"`
	Departments     int `json:"totalDepartments"`
}

type AttendanceStats struct {
	Records        int     `json:"totalRecords"`
	AvgWorkHours   float64 `json:"avgWorkHours"`
	Late           int     `json:"lateCount"`
	Absent         int     `json:"absentCount"`
	AttendanceRate float64 `json:"attendanceRate"`
}

type LeaveStats struct {
	DaysUsed        float64 `json:"totalUsed"`
	Usages          int     `json:"usageCount"`
	AvgPerEmployee  float64 `json:"avgPerEmployee"`
	PendingRequests int     `json:"pendingRequests"`
}

type EvaluationStats struct {
	Evaluations    int     `json:"totalEvaluations"`
	Completed      int     `json:"completedEvaluations"`
	CompletionRate float64 `json:"completionRate"`
	AvgScore       float64 `json:"avgScore"`
}

type PayrollStats struct {
	Records         int             `json:"totalPayrolls"`
	TotalGross      decimal.Decimal `json:"totalGrossPay"`
	TotalNet        decimal.Decimal `json:"totalNetPay"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	AvgNet          decimal.Decimal `json:"avgNetPay"`
}

type BonusStats struct {
	Calculations  int             `json:"totalCalculations"`
	TotalAmount   decimal.Decimal `json:"totalBonusAmount"`
	Distributions int             `json:"totalDistributions"`
}

type Overview struct {
	Period           string          `json:"period"`
	Headcount        Headcount       `json:"overview"`
	Attendance       AttendanceStats `json:"attendance"`
	Leave            LeaveStats      `json:"annualLeave"`
	Evaluation       EvaluationStats `json:"evaluation"`
	Payroll          PayrollStats    `json:"payroll"`
	Bonus            BonusStats      `json:"bonus"`
	RecentActivities []audit.Event   `json:"recentActivities"`
}

// Summary is the body of the downloadable period report.
type Summary struct {
	Period     string          `json:"period"`
	Headcount  Headcount       `json:"employee"`
	Attendance AttendanceStats `json:"attendance"`
	Payroll    PayrollStats    `json:"payroll"`
	Evaluation EvaluationStats `json:"evaluation"`
	Bonus      BonusStats      `json:"bonus"`
}

type DepartmentStat struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Employees    int             `json:"employeeCount"`
	AvgNetPay    decimal.Decimal `json:"avgSalary"`
	TotalNetPay  decimal.Decimal `json:"totalSalary"`
	LeaveDays    float64         `json:"-"`
	AvgLeaveDays float64         `json:"avgLeaveDays"`
}

type PayrollTrendPoint struct {
	Period          string          `json:"period"`
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	Records         int             `json:"payrollCount"`
	TotalGross      decimal.Decimal `json:"totalGross"`
	TotalNet        decimal.Decimal `json:"totalNet"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	AvgNet          decimal.Decimal `json:"avgNet"`
	DeductionRate   float64         `json:"deductionRate"`
}

type AttendanceTrendPoint struct {
	Period         string  `json:"period"`
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	Records        int     `json:"totalRecords"`
	OnTime         int     `json:"onTime"`
	Late           int     `json:"late"`
	Absent         int     `json:"absent"`
	AvgHours       float64 `json:"avgHours"`
	AttendanceRate float64 `json:"attendanceRate"`
}

type AttendanceTrend struct {
	ChartData []AttendanceTrendPoint `json:"chartData"`
	Summary   struct {
		TotalMonths       int     `json:"totalMonths"`
		AvgAttendanceRate float64 `json:"avgAttendanceRate"`
		AvgWorkHours      float64 `json:"avgWorkHours"`
	} `json:"summary"`
}

// EmployeeDashboard is the self-service landing view.
type EmployeeDashboard struct {
	EmployeeID          string  `json:"employeeId"`
	Year                int     `json:"year"`
	LeaveRemaining      float64 `json:"leaveRemaining"`
	PendingLeave        int     `json:"pendingLeaveRequests"`
	PayrollRecords      int     `json:"payrollRecords"`
	PendingEvaluations  int     `json:"pendingEvaluations"`
	AttendanceThisMonth int     `json:"attendanceThisMonth"`
}

// DownloadRequest selects the report and its format.
type DownloadRequest struct {
	ReportType string `json:"reportType" validate:"omitempty,oneof=summary"`
	Format     string `json:"format" validate:"omitempty,oneof=csv pdf"`
	Year       int    `json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Month      int    `json:"month" validate:"omitempty,gte=0,lte=12"`
}
