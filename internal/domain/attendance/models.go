package attendance

import "time"

type Record struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	WorkDate   time.Time  `json:"workDate"`
	CheckIn    *time.Time `json:"checkIn,omitempty"`
	CheckOut   *time.Time `json:"checkOut,omitempty"`
	WorkHours  float64    `json:"workHours"`
	Status     string     `json:"status"`
	Note       string     `json:"note"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// RecordInput is the admin form. Times are wall-clock HH:MM or HH:MM:SS on WorkDate.
type RecordInput struct {
	EmployeeID string `json:"employeeId" validate:"required,uuid"`
	WorkDate   string `json:"workDate" validate:"required,datetime=2006-01-02"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	Note       string `json:"note" validate:"max=500"`
}

type Filter struct {
	EmployeeID string
	Status     string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

type MonthlySummary struct {
	EmployeeID string         `json:"employeeId"`
	Year       int            `json:"year"`
	Month      int            `json:"month"`
	Days       int            `json:"days"`
	ByStatus   map[string]int `json:"byStatus"`
	TotalHours float64        `json:"totalHours"`
}
