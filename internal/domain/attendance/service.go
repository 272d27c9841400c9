package attendance

import (
	"context"
	"errors"
	"time"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/core"
	"hrms/internal/platform/apperr"
)

// Employees is the slice of core the attendance service reads.
type Employees interface {
	GetEmployee(ctx context.Context, id string) (core.Employee, error)
}

type Service struct {
	Store     StoreAPI
	Employees Employees
	Audit     audit.Sink
	Location  *time.Location
	Now       func() time.Time
}

func NewService(store StoreAPI, employees Employees, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Service{Store: store, Employees: employees, Audit: sink, Location: time.Local, Now: time.Now}
}

func (s *Service) now() time.Time {
	return s.Now().In(s.Location)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// restamp brings stored times back to the service clock before status rules run.
func (s *Service) restamp(rec *Record) {
	if rec.CheckIn != nil {
		in := rec.CheckIn.In(s.Location)
		rec.CheckIn = &in
	}
	if rec.CheckOut != nil {
		out := rec.CheckOut.In(s.Location)
		rec.CheckOut = &out
	}
}

func (s *Service) CheckIn(ctx context.Context, actorID, employeeID string) (Record, error) {
	if employeeID == "" {
		return Record{}, ErrNoEmployeeLinked
	}
	now := s.now()
	existing, err := s.Store.GetByDate(ctx, employeeID, dayOf(now))
	switch {
	case errors.Is(err, ErrRecordNotFound):
		rec, err := s.Store.Insert(ctx, Record{
			EmployeeID: employeeID,
			WorkDate:   dayOf(now),
			CheckIn:    &now,
			Status:     DetermineStatus(&now, nil),
		})
		if err != nil {
			return Record{}, err
		}
		s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "attendance_record", EntityID: rec.ID, Message: "check-in"})
		return rec, nil
	case err != nil:
		return Record{}, err
	}

	if existing.CheckIn != nil {
		return Record{}, ErrAlreadyCheckedIn
	}
	s.restamp(&existing)
	existing.CheckIn = &now
	existing.Status = DetermineStatus(existing.CheckIn, existing.CheckOut)
	rec, err := s.Store.Update(ctx, existing)
	if err != nil {
		return Record{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "attendance_record", EntityID: rec.ID, Message: "check-in"})
	return rec, nil
}

func (s *Service) CheckOut(ctx context.Context, actorID, employeeID string) (Record, error) {
	if employeeID == "" {
		return Record{}, ErrNoEmployeeLinked
	}
	now := s.now()
	rec, err := s.Store.GetByDate(ctx, employeeID, dayOf(now))
	if errors.Is(err, ErrRecordNotFound) {
		return Record{}, ErrNotCheckedIn
	}
	if err != nil {
		return Record{}, err
	}
	if rec.CheckIn == nil {
		return Record{}, ErrNotCheckedIn
	}
	if rec.CheckOut != nil {
		return Record{}, ErrAlreadyCheckedOut
	}
	s.restamp(&rec)
	rec.CheckOut = &now
	rec.WorkHours = WorkHours(*rec.CheckIn, now)
	rec.Status = DetermineStatus(rec.CheckIn, rec.CheckOut)
	updated, err := s.Store.Update(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "attendance_record", EntityID: rec.ID, Message: "check-out"})
	return updated, nil
}

// Today returns nil when nothing has been recorded yet.
func (s *Service) Today(ctx context.Context, employeeID string) (*Record, error) {
	rec, err := s.Store.GetByDate(ctx, employeeID, dayOf(s.now()))
	if errors.Is(err, ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Service) fromInput(in RecordInput) (Record, error) {
	day, err := time.Parse("2006-01-02", in.WorkDate)
	if err != nil {
		return Record{}, apperr.Validation("workDate", "must be YYYY-MM-DD")
	}
	checkIn, err := ParseClock(day, in.CheckIn, s.Location)
	if err != nil {
		return Record{}, apperr.Validation("checkIn", "must be HH:MM or HH:MM:SS")
	}
	checkOut, err := ParseClock(day, in.CheckOut, s.Location)
	if err != nil {
		return Record{}, apperr.Validation("checkOut", "must be HH:MM or HH:MM:SS")
	}
	if checkOut != nil && checkIn == nil {
		return Record{}, apperr.Validation("checkIn", "required when checkOut is set")
	}
	rec := Record{EmployeeID: in.EmployeeID, WorkDate: day, CheckIn: checkIn, CheckOut: checkOut, Note: in.Note}
	if checkIn != nil && checkOut != nil {
		rec.WorkHours = WorkHours(*checkIn, *checkOut)
	}
	rec.Status = DetermineStatus(checkIn, checkOut)
	return rec, nil
}

func (s *Service) Create(ctx context.Context, actorID string, in RecordInput) (Record, error) {
	rec, err := s.fromInput(in)
	if err != nil {
		return Record{}, err
	}
	if _, err := s.Employees.GetEmployee(ctx, in.EmployeeID); err != nil {
		return Record{}, err
	}
	if _, err := s.Store.GetByDate(ctx, rec.EmployeeID, rec.WorkDate); err == nil {
		return Record{}, ErrDuplicateRecord
	} else if !errors.Is(err, ErrRecordNotFound) {
		return Record{}, err
	}
	created, err := s.Store.Insert(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "attendance_record", EntityID: created.ID, Message: "attendance record created", After: created})
	return created, nil
}

// Update rewrites the times and note of a record; employee and date stay fixed.
func (s *Service) Update(ctx context.Context, actorID, id string, in RecordInput) (Record, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	in.EmployeeID = current.EmployeeID
	in.WorkDate = current.WorkDate.Format("2006-01-02")
	next, err := s.fromInput(in)
	if err != nil {
		return Record{}, err
	}
	next.ID = id
	updated, err := s.Store.Update(ctx, next)
	if err != nil {
		return Record{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "attendance_record", EntityID: id, Message: "attendance record updated", Before: current, After: updated})
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionDelete, EntityType: "attendance_record", EntityID: id, Message: "attendance record deleted"})
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Record, int, error) {
	return s.Store.List(ctx, filter)
}

func (s *Service) MonthlySummary(ctx context.Context, employeeID string, year, month int) (MonthlySummary, error) {
	if month < 1 || month > 12 {
		return MonthlySummary{}, apperr.Validation("month", "must be between 1 and 12")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	records, _, err := s.Store.List(ctx, Filter{EmployeeID: employeeID, From: from, To: from.AddDate(0, 1, -1)})
	if err != nil {
		return MonthlySummary{}, err
	}
	return Summarize(employeeID, year, month, records), nil
}
