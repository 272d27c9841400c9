package leave

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	FindGrant(ctx context.Context, employeeID string, year int) (Grant, error)
	InsertGrant(ctx context.Context, grant Grant) (Grant, error)
	ListGrants(ctx context.Context, employeeID string, year int) ([]Grant, error)

	SumUsage(ctx context.Context, employeeID string, year int) (float64, error)
	InsertUsage(ctx context.Context, usage Usage) (Usage, error)
	ListUsages(ctx context.Context, employeeID string, year int) ([]Usage, error)
	DeleteUsagesForRequest(ctx context.Context, requestID string) error

	InsertRequest(ctx context.Context, req Request) (Request, error)
	GetRequest(ctx context.Context, id string) (Request, error)
	UpdateRequest(ctx context.Context, req Request) (Request, error)
	DeleteRequest(ctx context.Context, id string) error
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, int, error)
}
