package payroll

import "context"

type StoreAPI interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	InsertRecord(ctx context.Context, r Record) (Record, error)
	GetRecord(ctx context.Context, id string) (Record, error)
	UpdateRecord(ctx context.Context, r Record) (Record, error)
	DeleteRecord(ctx context.Context, id string) error
	ListRecords(ctx context.Context, filter RecordFilter) ([]Record, int, error)
	Totals(ctx context.Context, filter RecordFilter) (Totals, error)
	PeriodStats(ctx context.Context, period string) ([]PeriodStats, error)
}
