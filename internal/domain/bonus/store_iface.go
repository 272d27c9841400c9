package bonus

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreatePolicy(ctx context.Context, p Policy) (Policy, error)
	UpdatePolicy(ctx context.Context, p Policy) (Policy, error)
	GetPolicy(ctx context.Context, id string) (Policy, error)
	ListPolicies(ctx context.Context, filter PolicyFilter) ([]Policy, error)
	DeletePolicy(ctx context.Context, id string) error
	ClearDefaultPolicies(ctx context.Context, exceptID string) error
	PolicyNameExists(ctx context.Context, name, exceptID string) (bool, error)
	PolicyInUse(ctx context.Context, id string) (bool, error)
	PolicyTypes(ctx context.Context) ([]string, error)

	CreateCalculation(ctx context.Context, c Calculation) (Calculation, error)
	GetCalculation(ctx context.Context, id string, forUpdate bool) (Calculation, error)
	ListCalculations(ctx context.Context, filter CalculationFilter) ([]Calculation, int, error)
	UpdateCalculation(ctx context.Context, c Calculation) (Calculation, error)
	DeleteCalculation(ctx context.Context, id string) error

	DeleteDistributions(ctx context.Context, calculationID string) error
	InsertDistribution(ctx context.Context, d Distribution) (Distribution, error)
	ListDistributions(ctx context.Context, filter DistributionFilter) ([]Distribution, error)
	GetDistribution(ctx context.Context, id string, forUpdate bool) (Distribution, error)
	UpdateDistribution(ctx context.Context, d Distribution) (Distribution, error)
	SetDistributionStatus(ctx context.Context, calculationID, status string) error
	CountUnpaid(ctx context.Context, calculationID string) (int, error)

	InsertPayment(ctx context.Context, p Payment) (Payment, error)
	HasPayments(ctx context.Context, calculationID string) (bool, error)

	Statistics(ctx context.Context, year int) (Statistics, error)
	History(ctx context.Context, employeeID string) ([]HistoryEntry, error)
}
