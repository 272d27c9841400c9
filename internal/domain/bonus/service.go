package bonus

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/core"
	"hrms/internal/domain/performance"
	"hrms/internal/platform/apperr"
)

const dateLayout = "2006-01-02"

type Roster interface {
	Roster(ctx context.Context) ([]core.RosterEntry, error)
}

type Results interface {
	ScoredResults(ctx context.Context) ([]performance.ResultSnapshot, error)
}

type Service struct {
	Store   StoreAPI
	Roster  Roster
	Results Results
	Audit   audit.Sink
	Now     func() time.Time
}

func NewService(store StoreAPI, roster Roster, results Results, sink audit.Sink) *Service {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Service{Store: store, Roster: roster, Results: results, Audit: sink, Now: time.Now}
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.Validation(field, "must be YYYY-MM-DD")
	}
	return t, nil
}

func parseOptionalDate(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := parseDate(field, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func policyFromInput(in PolicyInput) (Policy, error) {
	if err := ValidateRatios(in.Ratios()); err != nil {
		return Policy{}, err
	}
	from, err := parseOptionalDate("effectiveFrom", in.EffectiveFrom)
	if err != nil {
		return Policy{}, err
	}
	to, err := parseOptionalDate("effectiveTo", in.EffectiveTo)
	if err != nil {
		return Policy{}, err
	}
	if from != nil && to != nil && from.After(*to) {
		return Policy{}, apperr.Validation("effectiveTo", "must not be before effectiveFrom")
	}
	p := Policy{
		Name:                strings.TrimSpace(in.Name),
		Description:         in.Description,
		PolicyType:          strings.TrimSpace(in.PolicyType),
		RatioBase:           in.RatioBase,
		RatioTeam:           in.RatioTeam,
		RatioPersonal:       in.RatioPersonal,
		RatioCompany:        in.RatioCompany,
		CalculationMethod:   in.CalculationMethod,
		MinPerformanceScore: in.MinPerformanceScore,
		MaxBonusMultiplier:  in.MaxBonusMultiplier,
		TargetDepartments:   orEmpty(in.TargetDepartments),
		TargetPositions:     orEmpty(in.TargetPositions),
		IsActive:            true,
		IsDefault:           in.IsDefault,
		EffectiveFrom:       from,
		EffectiveTo:         to,
		Version:             in.Version,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if p.CalculationMethod == "" {
		p.CalculationMethod = "weighted"
	}
	if p.MaxBonusMultiplier == 0 {
		p.MaxBonusMultiplier = 2.0
	}
	if p.Version == "" {
		p.Version = "1.0"
	}
	return p, nil
}

// savePolicy writes p and, when it is the default, clears every other
// default in the same transaction.
func (s *Service) savePolicy(ctx context.Context, p Policy, insert bool) (Policy, error) {
	var saved Policy
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		taken, err := s.Store.PolicyNameExists(ctx, p.Name, p.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrPolicyNameTaken
		}
		if insert {
			saved, err = s.Store.CreatePolicy(ctx, p)
		} else {
			saved, err = s.Store.UpdatePolicy(ctx, p)
		}
		if err != nil {
			return err
		}
		if saved.IsDefault {
			return s.Store.ClearDefaultPolicies(ctx, saved.ID)
		}
		return nil
	})
	return saved, err
}

func (s *Service) CreatePolicy(ctx context.Context, actorID string, in PolicyInput) (Policy, error) {
	p, err := policyFromInput(in)
	if err != nil {
		return Policy{}, err
	}
	if actorID != "" {
		p.CreatedBy = &actorID
	}
	created, err := s.savePolicy(ctx, p, true)
	if err != nil {
		return Policy{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "bonus_policy", EntityID: created.ID, Message: "bonus policy created", After: created})
	return created, nil
}

func (s *Service) UpdatePolicy(ctx context.Context, actorID, id string, in PolicyInput) (Policy, error) {
	current, err := s.Store.GetPolicy(ctx, id)
	if err != nil {
		return Policy{}, err
	}
	p, err := policyFromInput(in)
	if err != nil {
		return Policy{}, err
	}
	p.ID = current.ID
	p.CreatedBy = current.CreatedBy
	if in.IsActive == nil {
		p.IsActive = current.IsActive
	}
	updated, err := s.savePolicy(ctx, p, false)
	if err != nil {
		return Policy{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "bonus_policy", EntityID: id, Message: "bonus policy updated", Before: current, After: updated})
	return updated, nil
}

func (s *Service) GetPolicy(ctx context.Context, id string) (Policy, error) {
	return s.Store.GetPolicy(ctx, id)
}

func (s *Service) ListPolicies(ctx context.Context, filter PolicyFilter) ([]Policy, error) {
	return s.Store.ListPolicies(ctx, filter)
}

func (s *Service) DeletePolicy(ctx context.Context, actorID, id string) error {
	var deleted Policy
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		p, err := s.Store.GetPolicy(ctx, id)
		if err != nil {
			return err
		}
		if p.IsDefault {
			return ErrPolicyIsDefault
		}
		used, err := s.Store.PolicyInUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return ErrPolicyInUse
		}
		deleted = p
		return s.Store.DeletePolicy(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionDelete, EntityType: "bonus_policy", EntityID: id, Message: "bonus policy deleted", Before: deleted})
	return nil
}

func (s *Service) ValidatePolicy(ctx context.Context, id string) (ValidationReport, error) {
	p, err := s.Store.GetPolicy(ctx, id)
	if err != nil {
		return ValidationReport{}, err
	}
	return ValidatePolicy(p), nil
}

func (s *Service) PolicySummary(ctx context.Context) (PolicySummary, error) {
	all, err := s.Store.ListPolicies(ctx, PolicyFilter{})
	if err != nil {
		return PolicySummary{}, err
	}
	out := PolicySummary{Total: len(all), TypeDistribution: map[string]int{}}
	for i := range all {
		p := all[i]
		if p.IsActive {
			out.Active++
			out.TypeDistribution[p.PolicyType]++
		} else {
			out.Inactive++
		}
		if p.IsDefault && out.Default == nil {
			out.Default = &p
		}
	}
	return out, nil
}

func (s *Service) PolicyTypes(ctx context.Context) ([]string, error) {
	used, err := s.Store.PolicyTypes(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	for _, t := range append(append([]string{}, DefaultPolicyTypes...), used...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) CreateCalculation(ctx context.Context, actorID string, in CalculationInput) (Calculation, error) {
	start, err := parseDate("startDate", in.StartDate)
	if err != nil {
		return Calculation{}, err
	}
	end, err := parseDate("endDate", in.EndDate)
	if err != nil {
		return Calculation{}, err
	}
	if !start.Before(end) {
		return Calculation{}, apperr.Validation("endDate", "must be after startDate")
	}
	if !in.TotalAmount.IsPositive() {
		return Calculation{}, errTotalAmount
	}
	policy, err := s.Store.GetPolicy(ctx, in.PolicyID)
	if err != nil {
		return Calculation{}, err
	}
	if !policy.IsActive {
		return Calculation{}, ErrPolicyInactive
	}

	c := Calculation{
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Period:           strings.TrimSpace(in.Period),
		StartDate:        start,
		EndDate:          end,
		PolicyID:         policy.ID,
		TotalAmount:      in.TotalAmount,
		Status:           CalculationDraft,
		TotalDistributed: decimal.Zero,
		AverageBonus:     decimal.Zero,
	}
	if actorID != "" {
		c.CreatedBy = &actorID
	}
	created, err := s.Store.CreateCalculation(ctx, c)
	if err != nil {
		return Calculation{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionCreate, EntityType: "bonus_calculation", EntityID: created.ID, Message: "bonus calculation created", After: created})
	return created, nil
}

func (s *Service) ListCalculations(ctx context.Context, filter CalculationFilter) ([]Calculation, int, error) {
	return s.Store.ListCalculations(ctx, filter)
}

// GetCalculation returns the calculation with its distributions.
func (s *Service) GetCalculation(ctx context.Context, id string) (Calculation, error) {
	c, err := s.Store.GetCalculation(ctx, id, false)
	if err != nil {
		return Calculation{}, err
	}
	c.Distributions, err = s.Store.ListDistributions(ctx, DistributionFilter{CalculationID: id})
	if err != nil {
		return Calculation{}, err
	}
	return c, nil
}

func (s *Service) ListDistributions(ctx context.Context, filter DistributionFilter) ([]Distribution, error) {
	if _, err := s.Store.GetCalculation(ctx, filter.CalculationID, false); err != nil {
		return nil, err
	}
	return s.Store.ListDistributions(ctx, filter)
}

func (s *Service) DeleteCalculation(ctx context.Context, actorID, id string) error {
	var deleted Calculation
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		c, err := s.Store.GetCalculation(ctx, id, true)
		if err != nil {
			return err
		}
		paid, err := s.Store.HasPayments(ctx, id)
		if err != nil {
			return err
		}
		if paid {
			return ErrHasPayments
		}
		deleted = c
		return s.Store.DeleteCalculation(ctx, id)
	})
	if err != nil {
		return err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: actorID, ActionType: audit.ActionDelete, EntityType: "bonus_calculation", EntityID: id, Message: "bonus calculation deleted", Before: deleted})
	return nil
}

func snapshot(roster []core.RosterEntry, results []performance.ResultSnapshot) ([]Member, []Scored) {
	members := make([]Member, 0, len(roster))
	for _, r := range roster {
		members = append(members, Member{
			EmployeeID:   r.EmployeeID,
			DepartmentID: r.DepartmentID,
			Position:     r.Position,
			Active:       r.Status == core.EmployeeStatusActive,
		})
	}
	scored := make([]Scored, 0, len(results))
	for _, r := range results {
		scored = append(scored, Scored{
			ResultID:      r.ResultID,
			EmployeeID:    r.EmployeeID,
			Status:        r.Status,
			WeightedScore: r.WeightedScore,
			RecordedAt:    r.RecordedAt,
		})
	}
	return members, scored
}

// RunCalculation computes the distributions for a calculation. The status
// moves to calculating first so the run is visible; the distributions and
// the completed status are then written in one transaction, and any failure
// puts the calculation back to draft.
func (s *Service) RunCalculation(ctx context.Context, actorID, id string) (Calculation, error) {
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		c, err := s.Store.GetCalculation(ctx, id, true)
		if err != nil {
			return err
		}
		if c.Status != CalculationDraft && c.Status != CalculationCalculating {
			return ErrCannotRun
		}
		c.Status = CalculationCalculating
		_, err = s.Store.UpdateCalculation(ctx, c)
		return err
	})
	if err != nil {
		return Calculation{}, err
	}

	done, err := s.runCalculation(ctx, id)
	if err != nil {
		s.restoreDraft(ctx, id)
		return Calculation{}, err
	}
	s.Audit.Log(ctx, audit.Entry{
		UserID: actorID, ActionType: audit.ActionCalcRun, EntityType: "bonus_calculation", EntityID: id,
		Message: fmt.Sprintf("distributed %s to %d employees", done.TotalDistributed.StringFixed(2), done.TotalEmployees),
	})
	return done, nil
}

func (s *Service) runCalculation(ctx context.Context, id string) (Calculation, error) {
	roster, err := s.Roster.Roster(ctx)
	if err != nil {
		return Calculation{}, err
	}
	results, err := s.Results.ScoredResults(ctx)
	if err != nil {
		return Calculation{}, err
	}
	members, scored := snapshot(roster, results)

	var done Calculation
	err = s.Store.InTx(ctx, func(ctx context.Context) error {
		c, err := s.Store.GetCalculation(ctx, id, true)
		if err != nil {
			return err
		}
		// Another run may have completed or approved it since the status flip.
		if c.Status != CalculationCalculating {
			return ErrCannotRun
		}
		policy, err := s.Store.GetPolicy(ctx, c.PolicyID)
		if err != nil {
			return err
		}
		outcome, err := Distribute(Input{Total: c.TotalAmount, Ratios: policy.Ratios(), Roster: members, Results: scored})
		if err != nil {
			return err
		}
		if err := s.Store.DeleteDistributions(ctx, id); err != nil {
			return err
		}
		distributions := make([]Distribution, 0, len(outcome.Shares))
		for _, share := range outcome.Shares {
			d, err := s.Store.InsertDistribution(ctx, distributionFromShare(id, share))
			if err != nil {
				return err
			}
			distributions = append(distributions, d)
		}
		c.Status = CalculationCompleted
		c.TotalEmployees = outcome.TotalEmployees
		c.TotalDistributed = outcome.TotalDistributed
		c.AverageBonus = outcome.AverageBonus
		done, err = s.Store.UpdateCalculation(ctx, c)
		done.Distributions = distributions
		return err
	})
	return done, err
}

func (s *Service) restoreDraft(ctx context.Context, id string) {
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		c, err := s.Store.GetCalculation(ctx, id, true)
		if err != nil {
			return err
		}
		if c.Status != CalculationCalculating {
			return nil
		}
		c.Status = CalculationDraft
		_, err = s.Store.UpdateCalculation(ctx, c)
		return err
	})
	if err != nil {
		slog.Warn("restore bonus calculation to draft failed", "calculationId", id, "err", err)
	}
}

func distributionFromShare(calculationID string, share Share) Distribution {
	d := Distribution{
		CalculationID:      calculationID,
		EmployeeID:         share.EmployeeID,
		EvaluationResultID: share.EvaluationResultID,
		Position:           share.Position,
		IndividualScore:    share.IndividualScore,
		TeamScore:          share.TeamScore,
		CompanyScore:       share.CompanyScore,
		IndividualWeight:   share.IndividualWeight,
		TeamWeight:         share.TeamWeight,
		CompanyWeight:      share.CompanyWeight,
		BaseBonus:          share.BaseBonus,
		PerformanceBonus:   share.PerformanceBonus,
		TeamBonus:          share.TeamBonus,
		FinalBonus:         share.FinalBonus,
		ContributionRatio:  share.ContributionRatio,
		AdjustmentAmount:   decimal.Zero,
		Status:             DistributionCalculated,
	}
	if share.DepartmentID != "" {
		dep := share.DepartmentID
		d.DepartmentID = &dep
	}
	return d
}

// AdjustDistribution replaces the distribution's adjustment. The engine's
// final bonus is left as computed.
func (s *Service) AdjustDistribution(ctx context.Context, actorID, id string, in AdjustmentInput) (Distribution, error) {
	var before, adjusted Distribution
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		d, err := s.Store.GetDistribution(ctx, id, true)
		if err != nil {
			return err
		}
		c, err := s.Store.GetCalculation(ctx, d.CalculationID, true)
		if err != nil {
			return err
		}
		if c.Status != CalculationCompleted {
			return ErrNotCompleted
		}
		before = d
		d.AdjustmentAmount = in.Amount
		d.AdjustmentReason = strings.TrimSpace(in.Reason)
		adjusted, err = s.Store.UpdateDistribution(ctx, d)
		return err
	})
	if err != nil {
		return Distribution{}, err
	}
	s.Audit.Log(ctx, audit.Entry{
		UserID: actorID, ActionType: audit.ActionUpdate, EntityType: "bonus_distribution", EntityID: id,
		Message: "bonus adjusted: " + adjusted.AdjustmentReason,
		Before:  before.AdjustmentAmount, After: adjusted.AdjustmentAmount,
	})
	return adjusted, nil
}

func (s *Service) ApproveCalculation(ctx context.Context, approverID, id string) (Calculation, error) {
	var approved Calculation
	err := s.Store.InTx(ctx, func(ctx context.Context) error {
		c, err := s.Store.GetCalculation(ctx, id, true)
		if err != nil {
			return err
		}
		if c.Status != CalculationCompleted {
			return ErrNotCompleted
		}
		now := s.Now()
		c.Status = CalculationApproved
		c.ApprovedBy = &approverID
		c.ApprovedAt = &now
		if approved, err = s.Store.UpdateCalculation(ctx, c); err != nil {
			return err
		}
		return s.Store.SetDistributionStatus(ctx, id, DistributionApproved)
	})
	if err != nil {
		return Calculation{}, err
	}
	s.Audit.Log(ctx, audit.Entry{UserID: approverID, ActionType: audit.ActionApprove, EntityType: "bonus_calculation", EntityID: id, Message: "bonus calculation approved"})
	return approved, nil
}

// PayDistribution records a payment against an approved distribution. The
// calculation is marked paid once none of its distributions is left unpaid.
func (s *Service) PayDistribution(ctx context.Context, actorID, id string, in PaymentInput) (Payment, error) {
	day, err := parseDate("paymentDate", in.PaymentDate)
	if err != nil {
		return Payment{}, err
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return Payment{}, apperr.Validation("paymentMethod", "is required")
	}
	if in.TaxAmount.IsNegative() {
		return Payment{}, apperr.Validation("taxAmount", "must not be negative")
	}

	var payment Payment
	err = s.Store.InTx(ctx, func(ctx context.Context) error {
		d, err := s.Store.GetDistribution(ctx, id, true)
		if err != nil {
			return err
		}
		switch d.Status {
		case DistributionApproved:
		case DistributionPaid:
			return ErrAlreadyPaid
		default:
			return ErrNotApproved
		}

		amount := d.Payable().Round(cents)
		p := Payment{
			DistributionID: d.ID,
			EmployeeID:     d.EmployeeID,
			PaymentAmount:  amount,
			TaxAmount:      in.TaxAmount,
			NetAmount:      amount.Sub(in.TaxAmount),
			PaymentDate:    day,
			PaymentMethod:  method,
			ProcessingNote: in.ProcessingNote,
		}
		if actorID != "" {
			p.ProcessedBy = &actorID
		}
		if payment, err = s.Store.InsertPayment(ctx, p); err != nil {
			return err
		}

		d.Status = DistributionPaid
		d.PaymentDate = &day
		d.PaymentMethod = method
		if _, err := s.Store.UpdateDistribution(ctx, d); err != nil {
			return err
		}

		unpaid, err := s.Store.CountUnpaid(ctx, d.CalculationID)
		if err != nil || unpaid > 0 {
			return err
		}
		c, err := s.Store.GetCalculation(ctx, d.CalculationID, true)
		if err != nil {
			return err
		}
		c.Status = CalculationPaid
		_, err = s.Store.UpdateCalculation(ctx, c)
		return err
	})
	if err != nil {
		return Payment{}, err
	}
	s.Audit.Log(ctx, audit.Entry{
		UserID: actorID, ActionType: audit.ActionPay, EntityType: "bonus_distribution", EntityID: id,
		Message: fmt.Sprintf("paid %s (net %s)", payment.PaymentAmount.StringFixed(2), payment.NetAmount.StringFixed(2)),
		After:   payment,
	})
	return payment, nil
}

func (s *Service) Statistics(ctx context.Context, year int) (Statistics, error) {
	if year == 0 {
		year = s.Now().Year()
	}
	st, err := s.Store.Statistics(ctx, year)
	if err != nil {
		return Statistics{}, err
	}
	st.DistributionRate = decimal.Zero
	if st.TotalAmount.IsPositive() {
		st.DistributionRate = st.TotalDistributed.Div(st.TotalAmount).Mul(hundred).Round(2)
	}
	return st, nil
}

func (s *Service) MyBonusHistory(ctx context.Context, employeeID string) ([]HistoryEntry, error) {
	if employeeID == "" {
		return nil, ErrNoEmployee
	}
	return s.Store.History(ctx, employeeID)
}
