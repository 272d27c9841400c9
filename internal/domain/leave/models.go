package leave

import "time"

type Grant struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	Year       int       `json:"year"`
	TotalDays  float64   `json:"totalDays"`
	GrantDate  time.Time `json:"grantDate"`
	Note       string    `json:"note"`
	GrantedBy  *string   `json:"grantedBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type GrantInput struct {
	EmployeeID string  `json:"employeeId" validate:"required,uuid"`
	Year       int     `json:"year" validate:"required,min=2000,max=2100"`
	TotalDays  float64 `json:"totalDays" validate:"required,gt=0,lte=366"`
	GrantDate  string  `json:"grantDate" validate:"omitempty,datetime=2006-01-02"`
	Note       string  `json:"note" validate:"max=500"`
}

type Usage struct {
	ID             string    `json:"id"`
	EmployeeID     string    `json:"employeeId"`
	UsageDate      time.Time `json:"usageDate"`
	UsedDays       float64   `json:"usedDays"`
	LeaveRequestID *string   `json:"leaveRequestId,omitempty"`
	Note           string    `json:"note"`
	CreatedAt      time.Time `json:"createdAt"`
}

type UsageInput struct {
	EmployeeID     string  `json:"employeeId" validate:"required,uuid"`
	UsageDate      string  `json:"usageDate" validate:"required,datetime=2006-01-02"`
	UsedDays       float64 `json:"usedDays" validate:"required,gt=0"`
	LeaveRequestID *string `json:"leaveRequestId" validate:"omitempty,uuid"`
	Note           string  `json:"note" validate:"max=500"`
}

type Balance struct {
	EmployeeID string  `json:"employeeId"`
	Year       int     `json:"year"`
	Granted    float64 `json:"granted"`
	Used       float64 `json:"used"`
	Remaining  float64 `json:"remaining"`
}

type Request struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	LeaveType       string     `json:"leaveType"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	DaysRequested   float64    `json:"daysRequested"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	ApproverID      *string    `json:"approverId,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	DecisionNote    string     `json:"decisionNote,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// RequestInput carries a new or edited request. EmployeeID is honoured for
// admins only; everyone else files for their own employee.
type RequestInput struct {
	EmployeeID string `json:"employeeId" validate:"omitempty,uuid"`
	LeaveType  string `json:"leaveType" validate:"required,oneof=annual sick family_event other"`
	StartDate  string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"endDate" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason" validate:"max=1000"`
}

type RequestFilter struct {
	EmployeeID string
	Status     string
	LeaveType  string
	Limit      int
	Offset     int
}

// YearPortion is the part of a date range that falls in one calendar year.
type YearPortion struct {
	Year     int
	Days     float64
	FirstDay time.Time
}
