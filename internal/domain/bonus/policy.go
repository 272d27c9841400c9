package bonus

import (
	"fmt"
	"math"

	"hrms/internal/platform/apperr"
)

// Ratios are the four policy percentages. They must each lie in 0..100 and
// add up to 100.
type Ratios struct {
	Base     float64
	Team     float64
	Personal float64
	Company  float64
}

func (r Ratios) Sum() float64 {
	return r.Base + r.Team + r.Personal + r.Company
}

func (p Policy) Ratios() Ratios {
	return Ratios{Base: p.RatioBase, Team: p.RatioTeam, Personal: p.RatioPersonal, Company: p.RatioCompany}
}

func (in PolicyInput) Ratios() Ratios {
	return Ratios{Base: in.RatioBase, Team: in.RatioTeam, Personal: in.RatioPersonal, Company: in.RatioCompany}
}

func ValidateRatios(r Ratios) error {
	named := []struct {
		field string
		value float64
	}{
		{"ratioBase", r.Base},
		{"ratioTeam", r.Team},
		{"ratioPersonal", r.Personal},
		{"ratioCompany", r.Company},
	}
	for _, n := range named {
		if n.value < 0 || n.value > 100 {
			return apperr.Validation(n.field, "must be between 0 and 100")
		}
	}
	if sum := r.Sum(); math.Abs(sum-100) >= ratioTolerance {
		return apperr.Validation("ratios", fmt.Sprintf("ratios must sum to 100, got %.2f", sum))
	}
	return nil
}

// ValidatePolicy inspects a stored policy without changing it.
func ValidatePolicy(p Policy) ValidationReport {
	report := ValidationReport{RatioSum: p.Ratios().Sum(), Errors: []string{}, Warnings: []string{}}
	if err := ValidateRatios(p.Ratios()); err != nil {
		report.Errors = append(report.Errors, err.Error())
	}
	if p.EffectiveFrom != nil && p.EffectiveTo != nil && p.EffectiveFrom.After(*p.EffectiveTo) {
		report.Errors = append(report.Errors, "effective start date is after the end date")
	}
	if p.MinPerformanceScore < 0 || p.MinPerformanceScore > 100 {
		report.Warnings = append(report.Warnings, "minimum performance score is outside 0..100")
	}
	if p.MaxBonusMultiplier > multiplierWarningLevel {
		report.Warnings = append(report.Warnings, "maximum bonus multiplier is unusually high")
	}
	report.IsValid = len(report.Errors) == 0
	return report
}
