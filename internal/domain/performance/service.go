package performance

import (
	"context"
	"sort"
	"strings"
	"time"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/core"
	"hrms/internal/platform/apperr"
)

const dateLayout = "2006-01-02"

type Employees interface {
	GetEmployee(ctx context.Context, id string) (core.Employee, error)
}

type Service struct {
	Store     StoreAPI
	Employees Employees
	Audit     audit.Sink
	Now       func() time.Time
}

func NewService(store StoreAPI, employees Employees, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Service{Store: store, Employees: employees, Audit: sink, Now: time.Now}
}

func toItems(in []ItemInput) []Item {
	items := make([]Item, 0, len(in))
	for i, it := range in {
		order := it.OrderIndex
		if order == 0 {
			order = i
		}
		items = append(items, Item{Name: strings.TrimSpace(it.Name), Description: it.Description, Weight: it.Weight, OrderIndex: order})
	}
	return items
}

func (s *Service) CreateCriteria(ctx context.Context, actorID string, in CriteriaInput) (Criteria, error) {
	if err := ValidateItemWeights(in.Items); err != nil {
		return Criteria{}, err
	}
	c := Criteria{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		IsActive:    true,
		Version:     in.Version,
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if c.Version == "" {
		c.Version = "1.0"
	}
	if actorID != "" {
		c.CreatedBy = &actorID
	}

	var created Criteria
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		inserted, err := s.Store.CreateCriteria(ctx, c)
		if err != nil {
			return err
		}
		if err := s.Store.ReplaceItems(ctx, inserted.ID, toItems(in.Items)); err != nil {
			return err
		}
		created, err = s.Store.GetCriteria(ctx, inserted.ID)
		return err
	})
	if err != nil {
		return Criteria{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "evaluation_criteria", EntityID: created.ID, Message: "criteria " + created.Name + " created"})
	return created, nil
}

func (s *Service) UpdateCriteria(ctx context.Context, actorID, id string, in CriteriaInput) (Criteria, error) {
	if err := ValidateItemWeights(in.Items); err != nil {
		return Criteria{}, err
	}
	var updated Criteria
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		current, err := s.Store.GetCriteria(ctx, id)
		if err != nil {
			return err
		}
		current.Name = strings.TrimSpace(in.Name)
		current.Description = in.Description
		current.Category = strings.TrimSpace(in.Category)
		if in.Version != "" {
			current.Version = in.Version
		}
		if in.IsActive != nil {
			current.IsActive = *in.IsActive
		}
		if err := s.Store.UpdateCriteria(ctx, current); err != nil {
			return err
		}
		if in.Items != nil {
			if err := s.Store.ReplaceItems(ctx, id, toItems(in.Items)); err != nil {
				return err
			}
		}
		updated, err = s.Store.GetCriteria(ctx, id)
		return err
	})
	if err != nil {
		return Criteria{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "evaluation_criteria", EntityID: id, Message: "criteria " + updated.Name + " updated"})
	return updated, nil
}

func (s *Service) GetCriteria(ctx context.Context, id string) (Criteria, error) {
	return s.Store.GetCriteria(ctx, id)
}

func (s *Service) ListCriteria(ctx context.Context, filter CriteriaFilter) ([]Criteria, error) {
	return s.Store.ListCriteria(ctx, filter)
}

// DeleteCriteria removes the criteria and its items. Criteria referenced by
// an evaluation stay.
func (s *Service) DeleteCriteria(ctx context.Context, actorID, id string) error {
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		used, err := s.Store.CriteriaInUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return ErrCriteriaInUse
		}
		return s.Store.DeleteCriteria(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionDelete, EntityType: "evaluation_criteria", EntityID: id, Message: "criteria deleted"})
	return nil
}

func (s *Service) CriteriaSummary(ctx context.Context) (CriteriaSummary, error) {
	return s.Store.CriteriaSummary(ctx)
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	found, err := s.Store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(found)+len(DefaultCategories))
	for _, c := range append(found, DefaultCategories...) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("startDate", "must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation("endDate", "must be YYYY-MM-DD")
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, apperr.Validation("endDate", "must be after startDate")
	}
	return start, end, nil
}

func (s *Service) CreateEvaluation(ctx context.Context, actorID string, in EvaluationInput) (Evaluation, error) {
	start, end, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return Evaluation{}, err
	}
	if _, err := s.Store.GetCriteria(ctx, in.CriteriaID); err != nil {
		return Evaluation{}, err
	}
	e := Evaluation{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Type:        in.Type,
		Status:      EvaluationDraft,
		StartDate:   start,
		EndDate:     end,
		CriteriaID:  in.CriteriaID,
	}
	if actorID != "" {
		e.CreatedBy = &actorID
	}
	created, err := s.Store.CreateEvaluation(ctx, e)
	if err != nil {
		return Evaluation{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "evaluation", EntityID: created.ID, Message: "evaluation " + created.Title + " created"})
	return created, nil
}

// CanTransition allows staying put or moving one step along
// draft, in_progress, completed, closed.
func CanTransition(from, to string) bool {
	fi, ti := -1, -1
	for i, st := range evaluationFlow {
		if st == from {
			fi = i
		}
		if st == to {
			ti = i
		}
	}
	return fi >= 0 && ti >= 0 && (ti == fi || ti == fi+1)
}

func (s *Service) UpdateEvaluation(ctx context.Context, actorID, id string, in EvaluationInput) (Evaluation, error) {
	start, end, err := parseRange(in.StartDate, in.EndDate)
	if err != nil {
		return Evaluation{}, err
	}
	current, err := s.Store.GetEvaluation(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	next := current
	next.Title = strings.TrimSpace(in.Title)
	next.Description = in.Description
	next.Type = in.Type
	next.StartDate = start
	next.EndDate = end
	if in.Status != "" {
		if !CanTransition(current.Status, in.Status) {
			return Evaluation{}, ErrBadTransition
		}
		next.Status = in.Status
	}
	updated, err := s.Store.UpdateEvaluation(ctx, next)
	if err != nil {
		return Evaluation{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "evaluation", EntityID: id, Message: "evaluation updated", Before: current, After: updated})
	return updated, nil
}

func (s *Service) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	return s.Store.GetEvaluation(ctx, id)
}

func (s *Service) ListEvaluations(ctx context.Context, status string) ([]Evaluation, error) {
	return s.Store.ListEvaluations(ctx, status)
}

func (s *Service) DeleteEvaluation(ctx context.Context, actorID, id string) error {
	if err := s.Store.InTx(ctx, func(ctx context.Context) error {
		return s.Store.DeleteEvaluation(ctx, id)
	}); err != nil {
		return err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionDelete, EntityType: "evaluation", EntityID: id, Message: "evaluation deleted with its results"})
	return nil
}

func (s *Service) CreateResult(ctx context.Context, actorID, evaluationID string, in ResultInput) (Result, error) {
	eval, err := s.Store.GetEvaluation(ctx, evaluationID)
	if err != nil {
		return Result{}, err
	}
	if eval.Status == EvaluationClosed {
		return Result{}, ErrEvaluationClosed
	}
	for _, id := range []string{in.EmployeeID, in.EvaluatorID} {
		if _, err := s.Employees.GetEmployee(ctx, id); err != nil {
			return Result{}, err
		}
	}
	exists, err := s.Store.ResultExists(ctx, evaluationID, in.EmployeeID, in.EvaluatorID)
	if err != nil {
		return Result{}, err
	}
	if exists {
		return Result{}, ErrDuplicateResult
	}
	created, err := s.Store.CreateResult(ctx, Result{
		EvaluationID: evaluationID,
		EmployeeID:   in.EmployeeID,
		EvaluatorID:  in.EvaluatorID,
		Status:       ResultNotStarted,
	})
	if err != nil {
		return Result{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "evaluation_result", EntityID: created.ID, Message: "evaluation result created"})
	return created, nil
}

func (s *Service) GetResult(ctx context.Context, id string) (Result, error) {
	return s.Store.GetResult(ctx, id)
}

func (s *Service) ListResults(ctx context.Context, evaluationID, status string) ([]Result, error) {
	if _, err := s.Store.GetEvaluation(ctx, evaluationID); err != nil {
		return nil, err
	}
	return s.Store.ListResults(ctx, evaluationID, "", status)
}

func (s *Service) MyResults(ctx context.Context, employeeID, status string) ([]Result, error) {
	return s.Store.ListResults(ctx, "", employeeID, status)
}

func normalizeScores(in []ScoreInput) []ScoreInput {
	out := make([]ScoreInput, len(in))
	for i, sc := range in {
		if sc.MaxScore == 0 {
			sc.MaxScore = defaultMaxScore
		}
		out[i] = sc
	}
	return out
}

// UpdateResult edits texts and status and, when scores are given, replaces
// all of them and recomputes the aggregates in the same transaction.
// Moving into completed stamps submitted_at; staying there does not.
func (s *Service) UpdateResult(ctx context.Context, actorID, id string, in ResultUpdate) (Result, error) {
	var summary *Summary
	if in.Scores != nil {
		computed, err := ScoreItems(normalizeScores(in.Scores))
		if err != nil {
			return Result{}, err
		}
		summary = &computed
	}

	var before, updated Result
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		current, err := s.Store.GetResult(ctx, id)
		if err != nil {
			return err
		}
		if current.Status == ResultApproved {
			return ErrResultApproved
		}
		before = current
		next := current
		if in.SelfEvaluation != nil {
			next.SelfEvaluation = *in.SelfEvaluation
		}
		if in.EvaluatorComments != nil {
			next.EvaluatorComments = *in.EvaluatorComments
		}
		if in.Strengths != nil {
			next.Strengths = *in.Strengths
		}
		if in.ImprovementAreas != nil {
			next.ImprovementAreas = *in.ImprovementAreas
		}
		if summary != nil {
			if err := s.Store.ReplaceScores(ctx, id, summary.Scores); err != nil {
				return err
			}
			total, avg := summary.TotalScore, summary.WeightedAverage
			next.TotalScore = &total
			next.WeightedScore = &avg
			next.Grade = summary.Grade
		}
		if in.Status != "" {
			if in.Status == ResultCompleted && current.Status != ResultCompleted {
				now := s.Now()
				next.SubmittedAt = &now
			}
			next.Status = in.Status
		}
		if _, err := s.Store.UpdateResult(ctx, next); err != nil {
			return err
		}
		updated, err = s.Store.GetResult(ctx, id)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "evaluation_result", EntityID: id, Message: "evaluation result updated", Before: before.Status, After: updated.Status})
	return updated, nil
}

func (s *Service) ApproveResult(ctx context.Context, approverID, id string) (Result, error) {
	var approved Result
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		current, err := s.Store.GetResult(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != ResultCompleted {
			return ErrNotCompleted
		}
		now := s.Now()
		current.Status = ResultApproved
		current.ApprovedBy = &approverID
		current.ApprovedAt = &now
		approved, err = s.Store.UpdateResult(ctx, current)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: approverID, ActionType: audit.ActionApprove, EntityType: "evaluation_result", EntityID: id, Message: "evaluation result approved"})
	return approved, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.Store.Stats(ctx)
}

func (s *Service) ScoredResults(ctx context.Context) ([]ResultSnapshot, error) {
	return s.Store.ScoredResults(ctx)
}
