package performance

import "time"

type Criteria struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"isActive"`
	Version     string    `json:"version"`
	CreatedBy   *string   `json:"createdBy,omitempty"`
	Items       []Item    `json:"items"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Item struct {
	ID          string  `json:"id"`
	CriteriaID  string  `json:"criteriaId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	OrderIndex  int     `json:"orderIndex"`
}

type ItemInput struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight" validate:"gte=0,lte=100"`
	OrderIndex  int     `json:"orderIndex"`
}

// CriteriaInput replaces all items when Items is non-nil.
type CriteriaInput struct {
	Name        string      `json:"name" validate:"required,max=100"`
	Description string      `json:"description"`
	Category    string      `json:"category" validate:"required,max=50"`
	IsActive    *bool       `json:"isActive"`
	Version     string      `json:"version" validate:"max=20"`
	Items       []ItemInput `json:"items" validate:"omitempty,dive"`
}

type CriteriaFilter struct {
	Category   string
	ActiveOnly bool
}

type CriteriaSummary struct {
	Total                int            `json:"totalCriteria"`
	Active               int            `json:"activeCriteria"`
	Inactive             int            `json:"inactiveCriteria"`
	CategoryDistribution map[string]int `json:"categoryDistribution"`
}

type Evaluation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	CriteriaID  string    `json:"criteriaId"`
	CreatedBy   *string   `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type EvaluationInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"required,max=50"`
	Status      string `json:"status" validate:"omitempty,oneof=draft in_progress completed closed"`
	StartDate   string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"endDate" validate:"required,datetime=2006-01-02"`
	CriteriaID  string `json:"criteriaId" validate:"required,uuid"`
}

type Result struct {
	ID                string     `json:"id"`
	EvaluationID      string     `json:"evaluationId"`
	EmployeeID        string     `json:"employeeId"`
	EvaluatorID       string     `json:"evaluatorId"`
	Status            string     `json:"status"`
	TotalScore        *float64   `json:"totalScore,omitempty"`
	WeightedScore     *float64   `json:"weightedScore,omitempty"`
	Grade             string     `json:"grade,omitempty"`
	SelfEvaluation    string     `json:"selfEvaluation"`
	EvaluatorComments string     `json:"evaluatorComments"`
	Strengths         string     `json:"strengths"`
	ImprovementAreas  string     `json:"improvementAreas"`
	ApprovedBy        *string    `json:"approvedBy,omitempty"`
	ApprovedAt        *time.Time `json:"approvedAt,omitempty"`
	SubmittedAt       *time.Time `json:"submittedAt,omitempty"`
	Scores            []Score    `json:"scores,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type ResultInput struct {
	EmployeeID  string `json:"employeeId" validate:"required,uuid"`
	EvaluatorID string `json:"evaluatorId" validate:"required,uuid"`
}

// ResultUpdate leaves a field alone when it is nil. A non-nil Scores list
// replaces every stored score.
type ResultUpdate struct {
	SelfEvaluation    *string      `json:"selfEvaluation"`
	EvaluatorComments *string      `json:"evaluatorComments"`
	Strengths         *string      `json:"strengths"`
	ImprovementAreas  *string      `json:"improvementAreas"`
	Status            string       `json:"status" validate:"omitempty,oneof=not_started in_progress completed"`
	Scores            []ScoreInput `json:"scores" validate:"omitempty,dive"`
}

type Score struct {
	ID            string    `json:"id"`
	ResultID      string    `json:"resultId"`
	CriteriaItem  string    `json:"criteriaItem"`
	Weight        float64   `json:"weight"`
	MaxScore      float64   `json:"maxScore"`
	Score         float64   `json:"score"`
	WeightedScore float64   `json:"weightedScore"`
	Comments      string    `json:"comments"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ScoreInput struct {
	CriteriaItem string  `json:"criteriaItem" validate:"required,max=200"`
	Score        float64 `json:"score" validate:"gte=0"`
	MaxScore     float64 `json:"maxScore" validate:"gte=0"`
	Weight       float64 `json:"weight" validate:"gte=0"`
	Comments     string  `json:"comments"`
}

type Summary struct {
	TotalScore      float64 `json:"totalScore"`
	WeightedAverage float64 `json:"weightedAverage"`
	Grade           string  `json:"grade"`
	Scores          []Score `json:"scores"`
}

type Stats struct {
	ActiveEvaluations int            `json:"activeEvaluations"`
	CompletedResults  int            `json:"completedResults"`
	ApprovedResults   int            `json:"approvedResults"`
	AverageScore      float64        `json:"averageScore"`
	GradeDistribution map[string]int `json:"gradeDistribution"`
}

// ResultSnapshot is the view of a result the bonus engine consumes.
type ResultSnapshot struct {
	ResultID      string
	EmployeeID    string
	Status        string
	WeightedScore *float64
	RecordedAt    time.Time
}
