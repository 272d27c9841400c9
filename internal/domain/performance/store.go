package performance

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"hrms/internal/platform/querier"
)

type Store struct {
	DB querier.Beginner
}

func NewStore(db querier.Beginner) *Store {
	return &Store{DB: db}
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return querier.InTx(ctx, s.DB, fn)
}

func (s *Store) CreateCriteria(ctx context.Context, c Criteria) (Criteria, error) {
	err := querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO evaluation_criteria (name, description, category, is_active, version, created_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id, created_at, updated_at
  `, c.Name, c.Description, c.Category, c.IsActive, c.Version, c.CreatedBy).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *Store) UpdateCriteria(ctx context.Context, c Criteria) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, `
    UPDATE evaluation_criteria
    SET name = $2, description = $3, category = $4, is_active = $5, version = $6, updated_at = now()
    WHERE id = $1
  `, c.ID, c.Name, c.Description, c.Category, c.IsActive, c.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCriteriaNotFound
	}
	return nil
}

func (s *Store) ReplaceItems(ctx context.Context, criteriaID string, items []Item) error {
	q := querier.From(ctx, s.DB)
	if _, err := q.Exec(ctx, "DELETE FROM evaluation_items WHERE criteria_id = $1", criteriaID); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := q.Exec(ctx, `
      INSERT INTO evaluation_items (criteria_id, name, description, weight, order_index)
      VALUES ($1,$2,$3,$4,$5)
    `, criteriaID, it.Name, it.Description, it.Weight, it.OrderIndex); err != nil {
			return err
		}
	}
	return nil
}

const criteriaColumns = "id, name, description, category, is_active, version, created_by, created_at, updated_at"

func scanCriteria(row pgx.Row) (Criteria, error) {
	var c Criteria
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Category, &c.IsActive, &c.Version, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Criteria{}, ErrCriteriaNotFound
	}
	return c, err
}

func (s *Store) GetCriteria(ctx context.Context, id string) (Criteria, error) {
	q := querier.From(ctx, s.DB)
	c, err := scanCriteria(q.QueryRow(ctx, "SELECT "+criteriaColumns+" FROM evaluation_criteria WHERE id = $1", id))
	if err != nil {
		return Criteria{}, err
	}
	c.Items, err = s.items(ctx, id)
	return c, err
}

func (s *Store) items(ctx context.Context, criteriaID string) ([]Item, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT id, criteria_id, name, description, weight, order_index
    FROM evaluation_items
    WHERE criteria_id = $1
    ORDER BY order_index, name
  `, criteriaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CriteriaID, &it.Name, &it.Description, &it.Weight, &it.OrderIndex); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) ListCriteria(ctx context.Context, filter CriteriaFilter) ([]Criteria, error) {
	where := " WHERE 1=1"
	var args []any
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.ActiveOnly {
		where += " AND is_active"
	}
	rows, err := querier.From(ctx, s.DB).Query(ctx, "SELECT "+criteriaColumns+" FROM evaluation_criteria"+where+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	var out []Criteria
	for rows.Next() {
		c, err := scanCriteria(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = s.items(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) CriteriaInUse(ctx context.Context, id string) (bool, error) {
	var used bool
	err := querier.From(ctx, s.DB).QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM evaluations WHERE criteria_id = $1)", id).Scan(&used)
	return used, err
}

func (s *Store) DeleteCriteria(ctx context.Context, id string) error {
	q := querier.From(ctx, s.DB)
	if _, err := q.Exec(ctx, "DELETE FROM evaluation_items WHERE criteria_id = $1", id); err != nil {
		return err
	}
	tag, err := q.Exec(ctx, "DELETE FROM evaluation_criteria WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCriteriaNotFound
	}
	return nil
}

func (s *Store) CriteriaSummary(ctx context.Context) (CriteriaSummary, error) {
	q := querier.From(ctx, s.DB)
	out := CriteriaSummary{CategoryDistribution: map[string]int{}}
	if err := q.QueryRow(ctx, `
    SELECT COUNT(1), COUNT(1) FILTER (WHERE is_active) FROM evaluation_criteria
  `).Scan(&out.Total, &out.Active); err != nil {
		return CriteriaSummary{}, err
	}
	out.Inactive = out.Total - out.Active

	rows, err := q.Query(ctx, "SELECT category, COUNT(1) FROM evaluation_criteria GROUP BY category")
	if err != nil {
		return CriteriaSummary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return CriteriaSummary{}, err
		}
		out.CategoryDistribution[category] = count
	}
	return out, rows.Err()
}

func (s *Store) Categories(ctx context.Context) ([]string, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, "SELECT DISTINCT category FROM evaluation_criteria WHERE category <> ''")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const evaluationColumns = "id, title, description, type, status, start_date, end_date, criteria_id, created_by, created_at, updated_at"

func scanEvaluation(row pgx.Row) (Evaluation, error) {
	var e Evaluation
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Type, &e.Status, &e.StartDate, &e.EndDate, &e.CriteriaID, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Evaluation{}, ErrEvaluationNotFound
	}
	return e, err
}

func (s *Store) CreateEvaluation(ctx context.Context, e Evaluation) (Evaluation, error) {
	return scanEvaluation(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO evaluations (title, description, type, status, start_date, end_date, criteria_id, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING `+evaluationColumns,
		e.Title, e.Description, e.Type, e.Status, e.StartDate, e.EndDate, e.CriteriaID, e.CreatedBy))
}

func (s *Store) GetEvaluation(ctx context.Context, id string) (Evaluation, error) {
	return scanEvaluation(querier.From(ctx, s.DB).QueryRow(ctx, "SELECT "+evaluationColumns+" FROM evaluations WHERE id = $1", id))
}

func (s *Store) ListEvaluations(ctx context.Context, status string) ([]Evaluation, error) {
	query := "SELECT " + evaluationColumns + " FROM evaluations"
	var args []any
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	rows, err := querier.From(ctx, s.DB).Query(ctx, query+" ORDER BY start_date DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) UpdateEvaluation(ctx context.Context, e Evaluation) (Evaluation, error) {
	return scanEvaluation(querier.From(ctx, s.DB).QueryRow(ctx, `
    UPDATE evaluations
    SET title = $2, description = $3, type = $4, status = $5, start_date = $6, end_date = $7, updated_at = now()
    WHERE id = $1
    RETURNING `+evaluationColumns,
		e.ID, e.Title, e.Description, e.Type, e.Status, e.StartDate, e.EndDate))
}

// DeleteEvaluation removes scores, results and the evaluation itself. Call
// it inside a transaction.
func (s *Store) DeleteEvaluation(ctx context.Context, id string) error {
	q := querier.From(ctx, s.DB)
	if _, err := q.Exec(ctx, `
    DELETE FROM evaluation_scores
    WHERE result_id IN (SELECT id FROM evaluation_results WHERE evaluation_id = $1)
  `, id); err != nil {
		return err
	}
	if _, err := q.Exec(ctx, "DELETE FROM evaluation_results WHERE evaluation_id = $1", id); err != nil {
		return err
	}
	tag, err := q.Exec(ctx, "DELETE FROM evaluations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEvaluationNotFound
	}
	return nil
}

const resultColumns = `id, evaluation_id, employee_id, evaluator_id, status, total_score, weighted_score, grade,
  self_evaluation, evaluator_comments, strengths, improvement_areas, approved_by, approved_at, submitted_at,
  created_at, updated_at`

func scanResult(row pgx.Row) (Result, error) {
	var r Result
	err := row.Scan(&r.ID, &r.EvaluationID, &r.EmployeeID, &r.EvaluatorID, &r.Status, &r.TotalScore, &r.WeightedScore, &r.Grade,
		&r.SelfEvaluation, &r.EvaluatorComments, &r.Strengths, &r.ImprovementAreas, &r.ApprovedBy, &r.ApprovedAt, &r.SubmittedAt,
		&r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Result{}, ErrResultNotFound
	}
	return r, err
}

func (s *Store) CreateResult(ctx context.Context, r Result) (Result, error) {
	return scanResult(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO evaluation_results (evaluation_id, employee_id, evaluator_id, status)
    VALUES ($1,$2,$3,$4)
    RETURNING `+resultColumns,
		r.EvaluationID, r.EmployeeID, r.EvaluatorID, r.Status))
}

func (s *Store) ResultExists(ctx context.Context, evaluationID, employeeID, evaluatorID string) (bool, error) {
	var exists bool
	err := querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT EXISTS(SELECT 1 FROM evaluation_results WHERE evaluation_id = $1 AND employee_id = $2 AND evaluator_id = $3)
  `, evaluationID, employeeID, evaluatorID).Scan(&exists)
	return exists, err
}

func (s *Store) GetResult(ctx context.Context, id string) (Result, error) {
	q := querier.From(ctx, s.DB)
	r, err := scanResult(q.QueryRow(ctx, "SELECT "+resultColumns+" FROM evaluation_results WHERE id = $1", id))
	if err != nil {
		return Result{}, err
	}
	rows, err := q.Query(ctx, `
    SELECT id, result_id, criteria_item, weight, max_score, score, weighted_score, comments, created_at
    FROM evaluation_scores
    WHERE result_id = $1
    ORDER BY created_at, criteria_item
  `, id)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var sc Score
		if err := rows.Scan(&sc.ID, &sc.ResultID, &sc.CriteriaItem, &sc.Weight, &sc.MaxScore, &sc.Score, &sc.WeightedScore, &sc.Comments, &sc.CreatedAt); err != nil {
			return Result{}, err
		}
		r.Scores = append(r.Scores, sc)
	}
	return r, rows.Err()
}

func (s *Store) ListResults(ctx context.Context, evaluationID, employeeID, status string) ([]Result, error) {
	where := " WHERE 1=1"
	var args []any
	if evaluationID != "" {
		args = append(args, evaluationID)
		where += fmt.Sprintf(" AND evaluation_id::text = $%d", len(args))
	}
	if employeeID != "" {
		args = append(args, employeeID)
		where += fmt.Sprintf(" AND employee_id::text = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	rows, err := querier.From(ctx, s.DB).Query(ctx, "SELECT "+resultColumns+" FROM evaluation_results"+where+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateResult(ctx context.Context, r Result) (Result, error) {
	return scanResult(querier.From(ctx, s.DB).QueryRow(ctx, `
    UPDATE evaluation_results
    SET status = $2, total_score = $3, weighted_score = $4, grade = $5, self_evaluation = $6,
        evaluator_comments = $7, strengths = $8, improvement_areas = $9, approved_by = $10,
        approved_at = $11, submitted_at = $12, updated_at = now()
    WHERE id = $1
    RETURNING `+resultColumns,
		r.ID, r.Status, r.TotalScore, r.WeightedScore, r.Grade, r.SelfEvaluation,
		r.EvaluatorComments, r.Strengths, r.ImprovementAreas, r.ApprovedBy,
		r.ApprovedAt, r.SubmittedAt))
}

// ReplaceScores drops every stored score for the result before inserting the new list.
func (s *Store) ReplaceScores(ctx context.Context, resultID string, scores []Score) error {
	q := querier.From(ctx, s.DB)
	if _, err := q.Exec(ctx, "DELETE FROM evaluation_scores WHERE result_id = $1", resultID); err != nil {
		return err
	}
	for _, sc := range scores {
		if _, err := q.Exec(ctx, `
      INSERT INTO evaluation_scores (result_id, criteria_item, weight, max_score, score, weighted_score, comments)
      VALUES ($1,$2,$3,$4,$5,$6,$7)
    `, resultID, sc.CriteriaItem, sc.Weight, sc.MaxScore, sc.Score, sc.WeightedScore, sc.Comments); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	q := querier.From(ctx, s.DB)
	out := Stats{GradeDistribution: map[string]int{}}
	if err := q.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM evaluations WHERE status IN ('draft', 'in_progress')),
      (SELECT COUNT(1) FROM evaluation_results WHERE status = 'completed'),
      (SELECT COUNT(1) FROM evaluation_results WHERE status = 'approved'),
      (SELECT COALESCE(AVG(weighted_score), 0) FROM evaluation_results WHERE weighted_score IS NOT NULL)
  `).Scan(&out.ActiveEvaluations, &out.CompletedResults, &out.ApprovedResults, &out.AverageScore); err != nil {
		return Stats{}, err
	}

	rows, err := q.Query(ctx, "SELECT grade, COUNT(1) FROM evaluation_results WHERE grade <> '' GROUP BY grade")
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var grade string
		var count int
		if err := rows.Scan(&grade, &count); err != nil {
			return Stats{}, err
		}
		out.GradeDistribution[grade] = count
	}
	return out, rows.Err()
}

// ScoredResults returns every completed or approved result, newest first.
func (s *Store) ScoredResults(ctx context.Context) ([]ResultSnapshot, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT id, employee_id, status, weighted_score, COALESCE(submitted_at, updated_at)
    FROM evaluation_results
    WHERE status IN ('completed', 'approved')
    ORDER BY COALESCE(submitted_at, updated_at) DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ResultSnapshot
	for rows.Next() {
		var r ResultSnapshot
		if err := rows.Scan(&r.ResultID, &r.EmployeeID, &r.Status, &r.WeightedScore, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
