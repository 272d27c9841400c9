package bonus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

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

const policyColumns = `id, name, description, policy_type, ratio_base, ratio_team, ratio_personal, ratio_company,
  calculation_method, min_performance_score, max_bonus_multiplier, target_departments, target_positions,
  is_active, is_default, effective_from, effective_to, version, created_by, created_at, updated_at`

func scanPolicy(row pgx.Row) (Policy, error) {
	var p Policy
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PolicyType, &p.RatioBase, &p.RatioTeam, &p.RatioPersonal, &p.RatioCompany,
		&p.CalculationMethod, &p.MinPerformanceScore, &p.MaxBonusMultiplier, &p.TargetDepartments, &p.TargetPositions,
		&p.IsActive, &p.IsDefault, &p.EffectiveFrom, &p.EffectiveTo, &p.Version, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Policy{}, ErrPolicyNotFound
	}
	if p.TargetDepartments == nil {
		p.TargetDepartments = []string{}
	}
	if p.TargetPositions == nil {
		p.TargetPositions = []string{}
	}
	return p, err
}

func (s *Store) CreatePolicy(ctx context.Context, p Policy) (Policy, error) {
	return scanPolicy(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO bonus_policies (name, description, policy_type, ratio_base, ratio_team, ratio_personal, ratio_company,
      calculation_method, min_performance_score, max_bonus_multiplier, target_departments, target_positions,
      is_active, is_default, effective_from, effective_to, version, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
    RETURNING `+policyColumns,
		p.Name, p.Description, p.PolicyType, p.RatioBase, p.RatioTeam, p.RatioPersonal, p.RatioCompany,
		p.CalculationMethod, p.MinPerformanceScore, p.MaxBonusMultiplier, p.TargetDepartments, p.TargetPositions,
		p.IsActive, p.IsDefault, p.EffectiveFrom, p.EffectiveTo, p.Version, p.CreatedBy))
}

func (s *Store) UpdatePolicy(ctx context.Context, p Policy) (Policy, error) {
	return scanPolicy(querier.From(ctx, s.DB).QueryRow(ctx, `
    UPDATE bonus_policies
    SET name = $2, description = $3, policy_type = $4, ratio_base = $5, ratio_team = $6, ratio_personal = $7,
        ratio_company = $8, calculation_method = $9, min_performance_score = $10, max_bonus_multiplier = $11,
        target_departments = $12, target_positions = $13, is_active = $14, is_default = $15,
        effective_from = $16, effective_to = $17, version = $18, updated_at = now()
    WHERE id = $1
    RETURNING `+policyColumns,
		p.ID, p.Name, p.Description, p.PolicyType, p.RatioBase, p.RatioTeam, p.RatioPersonal,
		p.RatioCompany, p.CalculationMethod, p.MinPerformanceScore, p.MaxBonusMultiplier,
		p.TargetDepartments, p.TargetPositions, p.IsActive, p.IsDefault,
		p.EffectiveFrom, p.EffectiveTo, p.Version))
}

func (s *Store) GetPolicy(ctx context.Context, id string) (Policy, error) {
	return scanPolicy(querier.From(ctx, s.DB).QueryRow(ctx, "SELECT "+policyColumns+" FROM bonus_policies WHERE id = $1", id))
}

func (s *Store) ListPolicies(ctx context.Context, filter PolicyFilter) ([]Policy, error) {
	where := " WHERE 1=1"
	var args []any
	if filter.ActiveOnly {
		where += " AND is_active"
	}
	if filter.PolicyType != "" {
		args = append(args, filter.PolicyType)
		where += fmt.Sprintf(" AND policy_type = $%d", len(args))
	}
	rows, err := querier.From(ctx, s.DB).Query(ctx,
		"SELECT "+policyColumns+" FROM bonus_policies"+where+" ORDER BY is_default DESC, created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Policy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	tag, err := querier.From(ctx, s.DB).Exec(ctx, "DELETE FROM bonus_policies WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPolicyNotFound
	}
	return nil
}

func (s *Store) ClearDefaultPolicies(ctx context.Context, exceptID string) error {
	_, err := querier.From(ctx, s.DB).Exec(ctx,
		"UPDATE bonus_policies SET is_default = false, updated_at = now() WHERE is_default AND id::text <> $1", exceptID)
	return err
}

func (s *Store) PolicyNameExists(ctx context.Context, name, exceptID string) (bool, error) {
	var exists bool
	err := querier.From(ctx, s.DB).QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM bonus_policies WHERE name = $1 AND id::text <> $2)", name, exceptID).Scan(&exists)
	return exists, err
}

func (s *Store) PolicyInUse(ctx context.Context, id string) (bool, error) {
	var used bool
	err := querier.From(ctx, s.DB).QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM bonus_calculations WHERE policy_id = $1)", id).Scan(&used)
	return used, err
}

func (s *Store) PolicyTypes(ctx context.Context) ([]string, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, "SELECT DISTINCT policy_type FROM bonus_policies ORDER BY policy_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const calculationColumns = `id, title, description, period, start_date, end_date, policy_id, total_amount, status,
  total_employees, total_distributed, average_bonus, created_by, approved_by, approved_at, created_at, updated_at`

func scanCalculation(row pgx.Row) (Calculation, error) {
	var c Calculation
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Period, &c.StartDate, &c.EndDate, &c.PolicyID, &c.TotalAmount, &c.Status,
		&c.TotalEmployees, &c.TotalDistributed, &c.AverageBonus, &c.CreatedBy, &c.ApprovedBy, &c.ApprovedAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Calculation{}, ErrCalculationNotFound
	}
	return c, err
}

func (s *Store) CreateCalculation(ctx context.Context, c Calculation) (Calculation, error) {
	return scanCalculation(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO bonus_calculations (title, description, period, start_date, end_date, policy_id, total_amount, status, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+calculationColumns,
		c.Title, c.Description, c.Period, c.StartDate, c.EndDate, c.PolicyID, c.TotalAmount, c.Status, c.CreatedBy))
}

// GetCalculation takes a row lock when forUpdate is set, which only holds
// inside a transaction.
func (s *Store) GetCalculation(ctx context.Context, id string, forUpdate bool) (Calculation, error) {
	sql := "SELECT " + calculationColumns + " FROM bonus_calculations WHERE id = $1"
	if forUpdate {
		sql += " FOR UPDATE"
	}
	return scanCalculation(querier.From(ctx, s.DB).QueryRow(ctx, sql, id))
}

func (s *Store) ListCalculations(ctx context.Context, filter CalculationFilter) ([]Calculation, int, error) {
	q := querier.From(ctx, s.DB)
	where := " WHERE 1=1"
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Period != "" {
		args = append(args, filter.Period)
		where += fmt.Sprintf(" AND period = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	var total int
	if err := q.QueryRow(ctx, "SELECT COUNT(1) FROM bonus_calculations"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := "SELECT " + calculationColumns + " FROM bonus_calculations" + where + " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Calculation{}
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateCalculation(ctx context.Context, c Calculation) (Calculation, error) {
	return scanCalculation(querier.From(ctx, s.DB).QueryRow(ctx, `
    UPDATE bonus_calculations
    SET title = $2, description = $3, period = $4, start_date = $5, end_date = $6, policy_id = $7,
        total_amount = $8, status = $9, total_employees = $10, total_distributed = $11, average_bonus = $12,
        approved_by = $13, approved_at = $14, updated_at = now()
    WHERE id = $1
    RETURNING `+calculationColumns,
		c.ID, c.Title, c.Description, c.Period, c.StartDate, c.EndDate, c.PolicyID,
		c.TotalAmount, c.Status, c.TotalEmployees, c.TotalDistributed, c.AverageBonus,
		c.ApprovedBy, c.ApprovedAt))
}

// DeleteCalculation removes the calculation and its distributions. Callers
// check for payment history first.
func (s *Store) DeleteCalculation(ctx context.Context, id string) error {
	q := querier.From(ctx, s.DB)
	if _, err := q.Exec(ctx, "DELETE FROM bonus_distributions WHERE calculation_id = $1", id); err != nil {
		return err
	}
	tag, err := q.Exec(ctx, "DELETE FROM bonus_calculations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCalculationNotFound
	}
	return nil
}

const distributionColumns = `id, calculation_id, employee_id, evaluation_result_id, department_id, position,
  individual_score, team_score, company_score, individual_weight, team_weight, company_weight,
  base_bonus, performance_bonus, team_bonus, final_bonus, contribution_ratio,
  adjustment_amount, adjustment_reason, status, payment_date, payment_method, created_at, updated_at`

func scanDistribution(row pgx.Row) (Distribution, error) {
	var d Distribution
	err := row.Scan(&d.ID, &d.CalculationID, &d.EmployeeID, &d.EvaluationResultID, &d.DepartmentID, &d.Position,
		&d.IndividualScore, &d.TeamScore, &d.CompanyScore, &d.IndividualWeight, &d.TeamWeight, &d.CompanyWeight,
		&d.BaseBonus, &d.PerformanceBonus, &d.TeamBonus, &d.FinalBonus, &d.ContributionRatio,
		&d.AdjustmentAmount, &d.AdjustmentReason, &d.Status, &d.PaymentDate, &d.PaymentMethod, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Distribution{}, ErrDistributionNotFound
	}
	return d, err
}

func (s *Store) DeleteDistributions(ctx context.Context, calculationID string) error {
	_, err := querier.From(ctx, s.DB).Exec(ctx, "DELETE FROM bonus_distributions WHERE calculation_id = $1", calculationID)
	return err
}

func (s *Store) InsertDistribution(ctx context.Context, d Distribution) (Distribution, error) {
	return scanDistribution(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO bonus_distributions (calculation_id, employee_id, evaluation_result_id, department_id, position,
      individual_score, team_score, company_score, individual_weight, team_weight, company_weight,
      base_bonus, performance_bonus, team_bonus, final_bonus, contribution_ratio, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
    RETURNING `+distributionColumns,
		d.CalculationID, d.EmployeeID, d.EvaluationResultID, d.DepartmentID, d.Position,
		d.IndividualScore, d.TeamScore, d.CompanyScore, d.IndividualWeight, d.TeamWeight, d.CompanyWeight,
		d.BaseBonus, d.PerformanceBonus, d.TeamBonus, d.FinalBonus, d.ContributionRatio, d.Status))
}

func (s *Store) ListDistributions(ctx context.Context, filter DistributionFilter) ([]Distribution, error) {
	where := " WHERE 1=1"
	var args []any
	if filter.CalculationID != "" {
		args = append(args, filter.CalculationID)
		where += fmt.Sprintf(" AND calculation_id = $%d", len(args))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		where += fmt.Sprintf(" AND department_id::text = $%d", len(args))
	}
	rows, err := querier.From(ctx, s.DB).Query(ctx,
		"SELECT "+distributionColumns+" FROM bonus_distributions"+where+" ORDER BY final_bonus DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Distribution{}
	for rows.Next() {
		d, err := scanDistribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDistribution(ctx context.Context, id string, forUpdate bool) (Distribution, error) {
	sql := "SELECT " + distributionColumns + " FROM bonus_distributions WHERE id = $1"
	if forUpdate {
		sql += " FOR UPDATE"
	}
	return scanDistribution(querier.From(ctx, s.DB).QueryRow(ctx, sql, id))
}

func (s *Store) UpdateDistribution(ctx context.Context, d Distribution) (Distribution, error) {
	return scanDistribution(querier.From(ctx, s.DB).QueryRow(ctx, `
    UPDATE bonus_distributions
    SET adjustment_amount = $2, adjustment_reason = $3, status = $4, payment_date = $5, payment_method = $6,
        updated_at = now()
    WHERE id = $1
    RETURNING `+distributionColumns,
		d.ID, d.AdjustmentAmount, d.AdjustmentReason, d.Status, d.PaymentDate, d.PaymentMethod))
}

func (s *Store) SetDistributionStatus(ctx context.Context, calculationID, status string) error {
	_, err := querier.From(ctx, s.DB).Exec(ctx,
		"UPDATE bonus_distributions SET status = $2, updated_at = now() WHERE calculation_id = $1", calculationID, status)
	return err
}

func (s *Store) CountUnpaid(ctx context.Context, calculationID string) (int, error) {
	var n int
	err := querier.From(ctx, s.DB).QueryRow(ctx,
		"SELECT COUNT(1) FROM bonus_distributions WHERE calculation_id = $1 AND status <> $2",
		calculationID, DistributionPaid).Scan(&n)
	return n, err
}

const paymentColumns = `id, distribution_id, employee_id, payment_amount, tax_amount, net_amount, payment_date,
  payment_method, processed_by, processing_note, created_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.DistributionID, &p.EmployeeID, &p.PaymentAmount, &p.TaxAmount, &p.NetAmount, &p.PaymentDate,
		&p.PaymentMethod, &p.ProcessedBy, &p.ProcessingNote, &p.CreatedAt)
	return p, err
}

func (s *Store) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	return scanPayment(querier.From(ctx, s.DB).QueryRow(ctx, `
    INSERT INTO bonus_payment_history (distribution_id, employee_id, payment_amount, tax_amount, net_amount,
      payment_date, payment_method, processed_by, processing_note)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+paymentColumns,
		p.DistributionID, p.EmployeeID, p.PaymentAmount, p.TaxAmount, p.NetAmount,
		p.PaymentDate, p.PaymentMethod, p.ProcessedBy, p.ProcessingNote))
}

func (s *Store) HasPayments(ctx context.Context, calculationID string) (bool, error) {
	var exists bool
	err := querier.From(ctx, s.DB).QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM bonus_payment_history h
      JOIN bonus_distributions d ON d.id = h.distribution_id
      WHERE d.calculation_id = $1
    )
  `, calculationID).Scan(&exists)
	return exists, err
}

func (s *Store) Statistics(ctx context.Context, year int) (Statistics, error) {
	q := querier.From(ctx, s.DB)
	st := Statistics{Year: year, StatusCounts: map[string]int{}, Departments: []DepartmentStat{}, Months: []MonthStat{}}

	err := q.QueryRow(ctx, `
    SELECT COUNT(1), COALESCE(SUM(total_amount), 0), COALESCE(SUM(total_distributed), 0)
    FROM bonus_calculations
    WHERE EXTRACT(YEAR FROM start_date)::int = $1
  `, year).Scan(&st.TotalCalculations, &st.TotalAmount, &st.TotalDistributed)
	if err != nil {
		return Statistics{}, err
	}

	rows, err := q.Query(ctx, `
    SELECT status, COUNT(1)
    FROM bonus_calculations
    WHERE EXTRACT(YEAR FROM start_date)::int = $1
    GROUP BY status
  `, year)
	if err != nil {
		return Statistics{}, err
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return Statistics{}, err
		}
		st.StatusCounts[status] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Statistics{}, err
	}

	rows, err = q.Query(ctx, `
    SELECT COALESCE(d.department_id::text, ''), COALESCE(dep.name, ''),
           COALESCE(SUM(d.final_bonus + d.adjustment_amount), 0), COUNT(DISTINCT d.employee_id)
    FROM bonus_distributions d
    JOIN bonus_calculations c ON c.id = d.calculation_id
    LEFT JOIN departments dep ON dep.id = d.department_id
    WHERE EXTRACT(YEAR FROM c.start_date)::int = $1
    GROUP BY d.department_id, dep.name
    ORDER BY 3 DESC
  `, year)
	if err != nil {
		return Statistics{}, err
	}
	for rows.Next() {
		var ds DepartmentStat
		if err := rows.Scan(&ds.DepartmentID, &ds.Name, &ds.TotalAmount, &ds.EmployeeCount); err != nil {
			rows.Close()
			return Statistics{}, err
		}
		if ds.EmployeeCount > 0 {
			ds.AverageBonus = ds.TotalAmount.Div(decimal.NewFromInt(int64(ds.EmployeeCount))).Round(2)
		}
		st.Departments = append(st.Departments, ds)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Statistics{}, err
	}

	rows, err = q.Query(ctx, `
    SELECT EXTRACT(MONTH FROM payment_date)::int, COALESCE(SUM(payment_amount), 0), COUNT(1)
    FROM bonus_payment_history
    WHERE EXTRACT(YEAR FROM payment_date)::int = $1
    GROUP BY 1
    ORDER BY 1
  `, year)
	if err != nil {
		return Statistics{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var ms MonthStat
		if err := rows.Scan(&ms.Month, &ms.TotalAmount, &ms.PaymentCount); err != nil {
			return Statistics{}, err
		}
		st.Months = append(st.Months, ms)
	}
	return st, rows.Err()
}

func (s *Store) History(ctx context.Context, employeeID string) ([]HistoryEntry, error) {
	rows, err := querier.From(ctx, s.DB).Query(ctx, `
    SELECT `+prefixed("d", distributionColumns)+`, c.title, c.period, c.status,
           p.id, p.payment_amount, p.tax_amount, p.net_amount, p.payment_date, p.payment_method, p.processing_note, p.created_at
    FROM bonus_distributions d
    JOIN bonus_calculations c ON c.id = d.calculation_id
    LEFT JOIN LATERAL (
      SELECT * FROM bonus_payment_history h WHERE h.distribution_id = d.id ORDER BY h.created_at DESC LIMIT 1
    ) p ON true
    WHERE d.employee_id = $1
    ORDER BY c.start_date DESC, d.created_at DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []HistoryEntry{}
	for rows.Next() {
		var h HistoryEntry
		d := &h.Distribution
		var (
			payID               *string
			amount, tax, net    decimal.NullDecimal
			payDate, payCreated *time.Time
			payMethod, payNote  *string
		)
		err := rows.Scan(&d.ID, &d.CalculationID, &d.EmployeeID, &d.EvaluationResultID, &d.DepartmentID, &d.Position,
			&d.IndividualScore, &d.TeamScore, &d.CompanyScore, &d.IndividualWeight, &d.TeamWeight, &d.CompanyWeight,
			&d.BaseBonus, &d.PerformanceBonus, &d.TeamBonus, &d.FinalBonus, &d.ContributionRatio,
			&d.AdjustmentAmount, &d.AdjustmentReason, &d.Status, &d.PaymentDate, &d.PaymentMethod, &d.CreatedAt, &d.UpdatedAt,
			&h.CalculationTitle, &h.CalculationPeriod, &h.CalculationStatus,
			&payID, &amount, &tax, &net, &payDate, &payMethod, &payNote, &payCreated)
		if err != nil {
			return nil, err
		}
		if payID != nil {
			h.Payment = &Payment{
				ID:             *payID,
				DistributionID: d.ID,
				EmployeeID:     d.EmployeeID,
				PaymentAmount:  amount.Decimal,
				TaxAmount:      tax.Decimal,
				NetAmount:      net.Decimal,
				PaymentDate:    *payDate,
				PaymentMethod:  *payMethod,
				ProcessingNote: *payNote,
				CreatedAt:      *payCreated,
			}
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
