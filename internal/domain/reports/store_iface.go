package reports

import "context"

type StoreAPI interface {
	Headcount(ctx context.Context) (Headcount, error)
	Attendance(ctx context.Context, r Range) (AttendanceStats, error)
	Leave(ctx context.Context, r Range) (LeaveStats, error)
	Evaluations(ctx context.Context, r Range) (EvaluationStats, error)
	Payroll(ctx context.Context, r Range) (PayrollStats, error)
	Bonus(ctx context.Context, r Range) (BonusStats, error)
	Departments(ctx context.Context, r Range) ([]DepartmentStat, error)
	PayrollTrend(ctx context.Context, r Range) ([]PayrollTrendPoint, error)
	AttendanceTrend(ctx context.Context, r Range) ([]AttendanceTrendPoint, error)
	EmployeeCounts(ctx context.Context, employeeID string, year Range, month Range) (EmployeeDashboard, error)
}
