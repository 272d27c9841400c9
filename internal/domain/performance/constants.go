package performance

const (
	EvaluationDraft      = "draft"
	EvaluationInProgress = "in_progress"
	EvaluationCompleted  = "completed"
	EvaluationClosed     = "closed"
)

const (
	ResultNotStarted = "not_started"
	ResultInProgress = "in_progress"
	ResultCompleted  = "completed"
	ResultApproved   = "approved"
)

var (
	evaluationFlow = []string{EvaluationDraft, EvaluationInProgress, EvaluationCompleted, EvaluationClosed}

	// DefaultCategories are always offered even before any criteria use them.
	DefaultCategories = []string{"company", "job", "individual"}
)

const (
	defaultMaxScore     = 100.0
	itemWeightTolerance = 0.01
)
