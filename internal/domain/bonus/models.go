package bonus

import (
	"time"

	"github.com/shopspring/decimal"
)

type Policy struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	PolicyType          string     `json:"policyType"`
	RatioBase           float64    `json:"ratioBase"`
	RatioTeam           float64    `json:"ratioTeam"`
	RatioPersonal       float64    `json:"ratioPersonal"`
	RatioCompany        float64    `json:"ratioCompany"`
	CalculationMethod   string     `json:"calculationMethod"`
	MinPerformanceScore float64    `json:"minPerformanceScore"`
	MaxBonusMultiplier  float64    `json:"maxBonusMultiplier"`
	TargetDepartments   []string   `json:"targetDepartments"`
	TargetPositions     []string   `json:"targetPositions"`
	IsActive            bool       `json:"isActive"`
	IsDefault           bool       `json:"isDefault"`
	EffectiveFrom       *time.Time `json:"effectiveFrom,omitempty"`
	EffectiveTo         *time.Time `json:"effectiveTo,omitempty"`
	Version             string     `json:"version"`
	CreatedBy           *string    `json:"createdBy,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

type PolicyInput struct {
	Name                string   `json:"name" validate:"required,max=100"`
	Description         string   `json:"description"`
	PolicyType          string   `json:"policyType" validate:"required,max=50"`
	RatioBase           float64  `json:"ratioBase"`
	RatioTeam           float64  `json:"ratioTeam"`
	RatioPersonal       float64  `json:"ratioPersonal"`
	RatioCompany        float64  `json:"ratioCompany"`
	CalculationMethod   string   `json:"calculationMethod" validate:"max=50"`
	MinPerformanceScore float64  `json:"minPerformanceScore"`
	MaxBonusMultiplier  float64  `json:"maxBonusMultiplier" validate:"gte=0"`
	TargetDepartments   []string `json:"targetDepartments"`
	TargetPositions     []string `json:"targetPositions"`
	IsActive            *bool    `json:"isActive"`
	IsDefault           bool     `json:"isDefault"`
	EffectiveFrom       string   `json:"effectiveFrom" validate:"omitempty,datetime=2006-01-02"`
	EffectiveTo         string   `json:"effectiveTo" validate:"omitempty,datetime=2006-01-02"`
	Version             string   `json:"version" validate:"max=20"`
}

type PolicyFilter struct {
	ActiveOnly bool
	PolicyType string
}

type PolicySummary struct {
	Total            int            `json:"totalPolicies"`
	Active           int            `json:"activePolicies"`
	Inactive         int            `json:"inactivePolicies"`
	Default          *Policy        `json:"defaultPolicy"`
	TypeDistribution map[string]int `json:"typeDistribution"`
}

type ValidationReport struct {
	IsValid  bool     `json:"isValid"`
	RatioSum float64  `json:"ratioSum"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type Calculation struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Period           string          `json:"period"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate"`
	PolicyID         string          `json:"policyId"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	Status           string          `json:"status"`
	TotalEmployees   int             `json:"totalEmployees"`
	TotalDistributed decimal.Decimal `json:"totalDistributed"`
	AverageBonus     decimal.Decimal `json:"averageBonus"`
	CreatedBy        *string         `json:"createdBy,omitempty"`
	ApprovedBy       *string         `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time      `json:"approvedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	Distributions    []Distribution  `json:"distributions,omitempty"`
}

type CalculationInput struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description"`
	Period      string          `json:"period" validate:"required,max=50"`
	StartDate   string          `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate     string          `json:"endDate" validate:"required,datetime=2006-01-02"`
	PolicyID    string          `json:"policyId" validate:"required,uuid"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type CalculationFilter struct {
	Status string
	Period string
	Search string
	Limit  int
	Offset int
}

type Distribution struct {
	ID                 string          `json:"id"`
	CalculationID      string          `json:"calculationId"`
	EmployeeID         string          `json:"employeeId"`
	EvaluationResultID *string         `json:"evaluationResultId,omitempty"`
	DepartmentID       *string         `json:"departmentId,omitempty"`
	Position           string          `json:"position"`
	IndividualScore    float64         `json:"individualScore"`
	TeamScore          float64         `json:"teamScore"`
	CompanyScore       float64         `json:"companyScore"`
	IndividualWeight   float64         `json:"individualWeight"`
	TeamWeight         float64         `json:"teamWeight"`
	CompanyWeight      float64         `json:"companyWeight"`
	BaseBonus          decimal.Decimal `json:"baseBonus"`
	PerformanceBonus   decimal.Decimal `json:"performanceBonus"`
	TeamBonus          decimal.Decimal `json:"teamBonus"`
	FinalBonus         decimal.Decimal `json:"finalBonus"`
	ContributionRatio  decimal.Decimal `json:"contributionRatio"`
	AdjustmentAmount   decimal.Decimal `json:"adjustmentAmount"`
	AdjustmentReason   string          `json:"adjustmentReason"`
	Status             string          `json:"status"`
	PaymentDate        *time.Time      `json:"paymentDate,omitempty"`
	PaymentMethod      string          `json:"paymentMethod"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Payable is what a payment settles: the engine's share plus any adjustment.
func (d Distribution) Payable() decimal.Decimal {
	return d.FinalBonus.Add(d.AdjustmentAmount)
}

type DistributionFilter struct {
	CalculationID string
	DepartmentID  string
}

type AdjustmentInput struct {
	Amount decimal.Decimal `json:"adjustmentAmount"`
	Reason string          `json:"adjustmentReason" validate:"required,max=500"`
}

type PaymentInput struct {
	PaymentDate    string          `json:"paymentDate" validate:"required,datetime=2006-01-02"`
	PaymentMethod  string          `json:"paymentMethod" validate:"required,max=50"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	ProcessingNote string          `json:"processingNote" validate:"max=500"`
}

type Payment struct {
	ID             string          `json:"id"`
	DistributionID string          `json:"distributionId"`
	EmployeeID     string          `json:"employeeId"`
	PaymentAmount  decimal.Decimal `json:"paymentAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	NetAmount      decimal.Decimal `json:"netAmount"`
	PaymentDate    time.Time       `json:"paymentDate"`
	PaymentMethod  string          `json:"paymentMethod"`
	ProcessedBy    *string         `json:"processedBy,omitempty"`
	ProcessingNote string          `json:"processingNote"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type DepartmentStat struct {
	DepartmentID  string          `json:"departmentId"`
	Name          string          `json:"name"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	EmployeeCount int             `json:"employeeCount"`
	AverageBonus  decimal.Decimal `json:"averageBonus"`
}

type MonthStat struct {
	Month        int             `json:"month"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	PaymentCount int             `json:"paymentCount"`
}

type Statistics struct {
	Year              int              `json:"year"`
	TotalCalculations int              `json:"totalCalculations"`
	TotalAmount       decimal.Decimal  `json:"totalAmount"`
	TotalDistributed  decimal.Decimal  `json:"totalDistributed"`
	DistributionRate  decimal.Decimal  `json:"distributionRate"`
	StatusCounts      map[string]int   `json:"statusStatistics"`
	Departments       []DepartmentStat `json:"departmentStatistics"`
	Months            []MonthStat      `json:"monthlyStatistics"`
}

type HistoryEntry struct {
	Distribution
	CalculationTitle  string   `json:"calculationTitle"`
	CalculationPeriod string   `json:"calculationPeriod"`
	CalculationStatus string   `json:"calculationStatus"`
	Payment           *Payment `json:"payment,omitempty"`
}
