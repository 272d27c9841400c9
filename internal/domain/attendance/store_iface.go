package attendance

import (
	"context"
	"time"
)

type StoreAPI interface {
	GetByDate(ctx context.Context, employeeID string, day time.Time) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Insert(ctx context.Context, rec Record) (Record, error)
	Update(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter Filter) ([]Record, int, error)
}
