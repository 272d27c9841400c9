package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

type Record struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employeeId"`
	EmployeeName   string `json:"employeeName"`
	EmployeeNumber string `json:"employeeNumber"`
	Period         string `json:"period"`
	Year           int    `json:"year"`
	Month          int    `json:"month"`
	Breakdown
	WorkDays             int        `json:"workDays"`
	OvertimeHours        float64    `json:"overtimeHours"`
	NightHours           float64    `json:"nightHours"`
	HolidayHours         float64    `json:"holidayHours"`
	AnnualLeaveUsed      float64    `json:"annualLeaveUsed"`
	AnnualLeaveRemaining float64    `json:"annualLeaveRemaining"`
	Memo                 string     `json:"memo"`
	Status               string     `json:"status"`
	IsFinal              bool       `json:"isFinal"`
	FinalizedAt          *time.Time `json:"finalizedAt,omitempty"`
	CreatedBy            *string    `json:"createdBy,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// RecordInput carries a create or a partial update. Nil fields keep their
// current value on update and default to zero on create.
type RecordInput struct {
	EmployeeID         string           `json:"employeeId" validate:"omitempty,uuid"`
	Period             string           `json:"period" validate:"omitempty,datetime=2006-01"`
	BasicSalary        *decimal.Decimal `json:"basicSalary"`
	PositionAllowance  *decimal.Decimal `json:"positionAllowance"`
	MealAllowance      *decimal.Decimal `json:"mealAllowance"`
	TransportAllowance *decimal.Decimal `json:"transportAllowance"`
	FamilyAllowance    *decimal.Decimal `json:"familyAllowance"`
	OvertimeAllowance  *decimal.Decimal `json:"overtimeAllowance"`
	NightAllowance     *decimal.Decimal `json:"nightAllowance"`
	HolidayAllowance   *decimal.Decimal `json:"holidayAllowance"`
	OtherAllowances    *decimal.Decimal `json:"otherAllowances"`
	PerformanceBonus   *decimal.Decimal `json:"performanceBonus"`
	AnnualBonus        *decimal.Decimal `json:"annualBonus"`
	SpecialBonus       *decimal.Decimal `json:"specialBonus"`
	UnionFee           *decimal.Decimal `json:"unionFee"`
	OtherDeductions    *decimal.Decimal `json:"otherDeductions"`

	WorkDays             *int     `json:"workDays" validate:"omitempty,gte=0,lte=31"`
	OvertimeHours        *float64 `json:"overtimeHours" validate:"omitempty,gte=0"`
	NightHours           *float64 `json:"nightHours" validate:"omitempty,gte=0"`
	HolidayHours         *float64 `json:"holidayHours" validate:"omitempty,gte=0"`
	AnnualLeaveUsed      *float64 `json:"annualLeaveUsed" validate:"omitempty,gte=0"`
	AnnualLeaveRemaining *float64 `json:"annualLeaveRemaining"`
	Memo                 *string  `json:"memo"`
}

type RecordFilter struct {
	EmployeeID string
	Period     string
	Year       int
	Status     string
	Limit      int
	Offset     int
}

type Totals struct {
	Records      int             `json:"totalRecords"`
	GrossPay     decimal.Decimal `json:"totalGrossPay"`
	NetPay       decimal.Decimal `json:"totalNetPay"`
	Deductions   decimal.Decimal `json:"totalDeductions"`
	AverageGross decimal.Decimal `json:"averageGrossPay"`
	AverageNet   decimal.Decimal `json:"averageNetPay"`
}

type RecordList struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	Totals  Totals   `json:"statistics"`
}

type MyRecords struct {
	Records []Record `json:"records"`
	Year    int      `json:"year"`
	Yearly  Totals   `json:"yearlyStats"`
}

type PeriodList struct {
	Periods    []string      `json:"periods"`
	Statistics []PeriodStats `json:"periodStatistics"`
}

type PeriodStats struct {
	Period         string          `json:"period"`
	EmployeeCount  int             `json:"employeeCount"`
	FinalizedCount int             `json:"finalizedCount"`
	TotalGrossPay  decimal.Decimal `json:"totalGrossPay"`
	TotalNetPay    decimal.Decimal `json:"totalNetPay"`
	TotalDeduction decimal.Decimal `json:"totalDeductions"`
	AverageGross   decimal.Decimal `json:"averageGrossPay"`
}
