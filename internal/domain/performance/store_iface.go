package performance

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateCriteria(ctx context.Context, c Criteria) (Criteria, error)
	UpdateCriteria(ctx context.Context, c Criteria) error
	ReplaceItems(ctx context.Context, criteriaID string, items []Item) error
	GetCriteria(ctx context.Context, id string) (Criteria, error)
	ListCriteria(ctx context.Context, filter CriteriaFilter) ([]Criteria, error)
	CriteriaInUse(ctx context.Context, id string) (bool, error)
	DeleteCriteria(ctx context.Context, id string) error
	CriteriaSummary(ctx context.Context) (CriteriaSummary, error)
	Categories(ctx context.Context) ([]string, error)

	CreateEvaluation(ctx context.Context, e Evaluation) (Evaluation, error)
	GetEvaluation(ctx context.Context, id string) (Evaluation, error)
	ListEvaluations(ctx context.Context, status string) ([]Evaluation, error)
	UpdateEvaluation(ctx context.Context, e Evaluation) (Evaluation, error)
	DeleteEvaluation(ctx context.Context, id string) error

	CreateResult(ctx context.Context, r Result) (Result, error)
	ResultExists(ctx context.Context, evaluationID, employeeID, evaluatorID string) (bool, error)
	GetResult(ctx context.Context, id string) (Result, error)
	ListResults(ctx context.Context, evaluationID, employeeID, status string) ([]Result, error)
	UpdateResult(ctx context.Context, r Result) (Result, error)
	ReplaceScores(ctx context.Context, resultID string, scores []Score) error

	Stats(ctx context.Context) (Stats, error)
	ScoredResults(ctx context.Context) ([]ResultSnapshot, error)
}
