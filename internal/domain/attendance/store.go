package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const recordColumns = "id, employee_id, work_date, check_in, check_out, work_hours, status, note, created_at, updated_at"

func scanRecord(row pgx.Row) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.EmployeeID, &r.WorkDate, &r.CheckIn, &r.CheckOut, &r.WorkHours, &r.Status, &r.Note, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return r, err
}

func (s *Store) GetByDate(ctx context.Context, employeeID string, day time.Time) (Record, error) {
	return scanRecord(querier.From(ctx, s.DB).QueryRow(ctx,
		"SELECT "+recordColumns+" FROM attendance_records WHERE employee_id = $1 AND work_date = $2", employeeID, day))
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	return scanRecord(querier.From(ctx, s.DB).QueryRow(ctx, "SELECT "+recordColumns+" FROM attendance_records WHERE id = $1", id))
}

func (s *Store) Insert(ctx context.Context, rec Record) (Record, error) {
	out, err := scanRecord(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO attendance_records (employee_id, work_date, check_in, check_out, work_hours, status, note)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+recordColumns,
		rec.EmployeeID, rec.WorkDate, rec.CheckIn, rec.CheckOut, rec.WorkHours, rec.Status, rec.Note))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Record{}, ErrDuplicateRecord
	}
	return out, err
}

func (s *Store) Update(ctx context.Context, rec Record) (Record, error) {
	return scanRecord(querier.From(ctx, s.DB).QueryRow(ctx, `
    UPDATE attendance_records
    SET check_in = $2, check_out = $3, work_hours = $4, status = $5, note = $6, updated_at = now()
    WHERE id = $1
    RETURNING `+recordColumns,
		rec.ID, rec.CheckIn, rec.CheckOut, rec.WorkHours, rec.Status, rec.Note))
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, "DELETE FROM attendance_records WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Record, int, error) {
	q := querier.From(ctx, s.DB)
	where := " WHERE 1=1"
	var args []any
	if filter.EmployeeID != "" {
		args = append(args, filter.EmployeeID)
		where += fmt.Sprintf(" AND employee_id::text = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where += fmt.Sprintf(" AND work_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where += fmt.Sprintf(" AND work_date <= $%d", len(args))
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(1) FROM attendance_records"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + recordColumns + " FROM attendance_records" + where + " ORDER BY work_date DESC, employee_id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}
