package performance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/core"
	"hrms/internal/platform/apperr"
)

type memoryStore struct {
	criteria    map[string]Criteria
	evaluations map[string]Evaluation
	results     map[string]Result
	seq         int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{criteria: map[string]Criteria{}, evaluations: map[string]Evaluation{}, results: map[string]Result{}}
}

func (m *memoryStore) id(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memoryStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	criteria := map[string]Criteria{}
	for k, v := range m.criteria {
		criteria[k] = v
	}
	results := map[string]Result{}
	for k, v := range m.results {
		results[k] = v
	}
	evaluations := map[string]Evaluation{}
	for k, v := range m.evaluations {
		evaluations[k] = v
	}
	if err := fn(ctx); err != nil {
		m.criteria, m.results, m.evaluations = criteria, results, evaluations
		return err
	}
	return nil
}

func (m *memoryStore) CreateCriteria(_ context.Context, c Criteria) (Criteria, error) {
	c.ID = m.id("c")
	m.criteria[c.ID] = c
	return c, nil
}

func (m *memoryStore) UpdateCriteria(_ context.Context, c Criteria) error {
	if _, ok := m.criteria[c.ID]; !ok {
		return ErrCriteriaNotFound
	}
	m.criteria[c.ID] = c
	return nil
}

func (m *memoryStore) ReplaceItems(_ context.Context, criteriaID string, items []Item) error {
	c := m.criteria[criteriaID]
	c.Items = items
	m.criteria[criteriaID] = c
	return nil
}

func (m *memoryStore) GetCriteria(_ context.Context, id string) (Criteria, error) {
	c, ok := m.criteria[id]
	if !ok {
		return Criteria{}, ErrCriteriaNotFound
	}
	return c, nil
}

func (m *memoryStore) ListCriteria(_ context.Context, _ CriteriaFilter) ([]Criteria, error) {
	var out []Criteria
	for _, c := range m.criteria {
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryStore) CriteriaInUse(_ context.Context, id string) (bool, error) {
	for _, e := range m.evaluations {
		if e.CriteriaID == id {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) DeleteCriteria(_ context.Context, id string) error {
	delete(m.criteria, id)
	return nil
}

func (m *memoryStore) CriteriaSummary(_ context.Context) (CriteriaSummary, error) {
	return CriteriaSummary{Total: len(m.criteria)}, nil
}

func (m *memoryStore) Categories(_ context.Context) ([]string, error) {
	var out []string
	for _, c := range m.criteria {
		out = append(out, c.Category)
	}
	return out, nil
}

func (m *memoryStore) CreateEvaluation(_ context.Context, e Evaluation) (Evaluation, error) {
	e.ID = m.id("ev")
	m.evaluations[e.ID] = e
	return e, nil
}

func (m *memoryStore) GetEvaluation(_ context.Context, id string) (Evaluation, error) {
	e, ok := m.evaluations[id]
	if !ok {
		return Evaluation{}, ErrEvaluationNotFound
	}
	return e, nil
}

func (m *memoryStore) ListEvaluations(_ context.Context, _ string) ([]Evaluation, error) {
	return nil, nil
}

func (m *memoryStore) UpdateEvaluation(_ context.Context, e Evaluation) (Evaluation, error) {
	m.evaluations[e.ID] = e
	return e, nil
}

func (m *memoryStore) DeleteEvaluation(_ context.Context, id string) error {
	for rid, r := range m.results {
		if r.EvaluationID == id {
			delete(m.results, rid)
		}
	}
	delete(m.evaluations, id)
	return nil
}

func (m *memoryStore) CreateResult(_ context.Context, r Result) (Result, error) {
	r.ID = m.id("r")
	m.results[r.ID] = r
	return r, nil
}

func (m *memoryStore) ResultExists(_ context.Context, evaluationID, employeeID, evaluatorID string) (bool, error) {
	for _, r := range m.results {
		if r.EvaluationID == evaluationID && r.EmployeeID == employeeID && r.EvaluatorID == evaluatorID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) GetResult(_ context.Context, id string) (Result, error) {
	r, ok := m.results[id]
	if !ok {
		return Result{}, ErrResultNotFound
	}
	return r, nil
}

func (m *memoryStore) ListResults(_ context.Context, evaluationID, employeeID, _ string) ([]Result, error) {
	var out []Result
	for _, r := range m.results {
		if (evaluationID == "" || r.EvaluationID == evaluationID) && (employeeID == "" || r.EmployeeID == employeeID) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) UpdateResult(_ context.Context, r Result) (Result, error) {
	scores := m.results[r.ID].Scores
	r.Scores = scores
	m.results[r.ID] = r
	return r, nil
}

func (m *memoryStore) ReplaceScores(_ context.Context, resultID string, scores []Score) error {
	r := m.results[resultID]
	r.Scores = append([]Score(nil), scores...)
	m.results[resultID] = r
	return nil
}

func (m *memoryStore) Stats(_ context.Context) (Stats, error) {
	return Stats{}, nil
}

func (m *memoryStore) ScoredResults(_ context.Context) ([]ResultSnapshot, error) {
	return nil, nil
}

type employees struct{}

func (employees) GetEmployee(_ context.Context, id string) (core.Employee, error) {
	if id == "missing" {
		return core.Employee{}, core.ErrEmployeeNotFound
	}
	return core.Employee{ID: id}, nil
}

func setup(t *testing.T) (*Service, *memoryStore, Evaluation) {
	t.Helper()
	store := newMemoryStore()
	svc := NewService(store, employees{}, nil)
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	ctx := context.Background()
	criteria, err := svc.CreateCriteria(ctx, "admin", CriteriaInput{Name: "Core", Category: "job", Items: []ItemInput{{Name: "a", Weight: 60}, {Name: "b", Weight: 40}}})
	require.NoError(t, err)
	eval, err := svc.CreateEvaluation(ctx, "admin", EvaluationInput{Title: "H1", Type: "half", StartDate: "2025-01-01", EndDate: "2025-06-30", CriteriaID: criteria.ID})
	require.NoError(t, err)
	return svc, store, eval
}

func TestCreateCriteriaChecksItemWeights(t *testing.T) {
	svc := NewService(newMemoryStore(), employees{}, nil)
	_, err := svc.CreateCriteria(context.Background(), "admin", CriteriaInput{Name: "Bad", Category: "job", Items: []ItemInput{{Name: "a", Weight: 50}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	c, err := svc.CreateCriteria(context.Background(), "admin", CriteriaInput{Name: "Empty", Category: "job"})
	require.NoError(t, err)
	assert.True(t, c.IsActive)
	assert.Equal(t, "1.0", c.Version)
}

func TestDeleteCriteriaInUseIsRefused(t *testing.T) {
	svc, _, eval := setup(t)
	assert.ErrorIs(t, svc.DeleteCriteria(context.Background(), "admin", eval.CriteriaID), apperr.ErrInvalidState)
}

func TestEvaluationTransitions(t *testing.T) {
	ctx := context.Background()
	svc, _, eval := setup(t)
	in := EvaluationInput{Title: "H1", Type: "half", StartDate: "2025-01-01", EndDate: "2025-06-30", CriteriaID: eval.CriteriaID}

	in.Status = EvaluationCompleted
	_, err := svc.UpdateEvaluation(ctx, "admin", eval.ID, in)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	in.Status = EvaluationInProgress
	updated, err := svc.UpdateEvaluation(ctx, "admin", eval.ID, in)
	require.NoError(t, err)
	assert.Equal(t, EvaluationInProgress, updated.Status)

	in.StartDate = "2025-07-01"
	_, err = svc.UpdateEvaluation(ctx, "admin", eval.ID, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestResultScoringAndSubmissionStamp(t *testing.T) {
	ctx := context.Background()
	svc, _, eval := setup(t)

	result, err := svc.CreateResult(ctx, "admin", eval.ID, ResultInput{EmployeeID: "e1", EvaluatorID: "e2"})
	require.NoError(t, err)
	_, err = svc.CreateResult(ctx, "admin", eval.ID, ResultInput{EmployeeID: "e1", EvaluatorID: "e2"})
	assert.ErrorIs(t, err, apperr.ErrDuplicate)
	_, err = svc.CreateResult(ctx, "admin", eval.ID, ResultInput{EmployeeID: "missing", EvaluatorID: "e2"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	updated, err := svc.UpdateResult(ctx, "e2", result.ID, ResultUpdate{
		Status: ResultCompleted,
		Scores: []ScoreInput{{CriteriaItem: "a", Score: 90, Weight: 60}, {CriteriaItem: "b", Score: 80, Weight: 40}},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.WeightedScore)
	assert.InDelta(t, 86.0, *updated.WeightedScore, 1e-9)
	assert.Equal(t, "A", updated.Grade)
	assert.Len(t, updated.Scores, 2)
	assert.Equal(t, 100.0, updated.Scores[0].MaxScore)
	require.NotNil(t, updated.SubmittedAt)
	firstStamp := *updated.SubmittedAt

	again, err := svc.UpdateResult(ctx, "e2", result.ID, ResultUpdate{
		Status: ResultCompleted,
		Scores: []ScoreInput{{CriteriaItem: "a", Score: 100, Weight: 100}},
	})
	require.NoError(t, err)
	assert.Equal(t, firstStamp, *again.SubmittedAt, "staying completed keeps the first stamp")
	assert.Len(t, again.Scores, 1, "scores are replaced, not appended")

	_, err = svc.UpdateResult(ctx, "e2", result.ID, ResultUpdate{Status: ResultInProgress})
	require.NoError(t, err)
	reentered, err := svc.UpdateResult(ctx, "e2", result.ID, ResultUpdate{Status: ResultCompleted})
	require.NoError(t, err)
	assert.True(t, reentered.SubmittedAt.After(firstStamp), "re-entering completed stamps again")
}

func TestInvalidScoresLeaveResultUntouched(t *testing.T) {
	ctx := context.Background()
	svc, store, eval := setup(t)
	result, err := svc.CreateResult(ctx, "admin", eval.ID, ResultInput{EmployeeID: "e1", EvaluatorID: "e2"})
	require.NoError(t, err)

	_, err = svc.UpdateResult(ctx, "e2", result.ID, ResultUpdate{Scores: []ScoreInput{{CriteriaItem: "a", Score: 5, MaxScore: -1, Weight: 10}}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Empty(t, store.results[result.ID].Scores)
}

func TestApproveOnlyFromCompleted(t *testing.T) {
	ctx := context.Background()
	svc, _, eval := setup(t)
	result, err := svc.CreateResult(ctx, "admin", eval.ID, ResultInput{EmployeeID: "e1", EvaluatorID: "e2"})
	require.NoError(t, err)

	_, err = svc.ApproveResult(ctx, "admin", result.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	_, err = svc.UpdateResult(ctx, "e2", result.ID, ResultUpdate{Status: ResultCompleted})
	require.NoError(t, err)
	approved, err := svc.ApproveResult(ctx, "admin", result.ID)
	require.NoError(t, err)
	assert.Equal(t, ResultApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "admin", *approved.ApprovedBy)

	_, err = svc.UpdateResult(ctx, "e2", result.ID, ResultUpdate{Status: ResultInProgress})
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestCategoriesIncludeDefaults(t *testing.T) {
	svc, _, _ := setup(t)
	cats, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"company", "individual", "job"}, cats)
}
