package payroll

import (
	"github.com/shopspring/decimal"

	"hrms/internal/platform/apperr"
)

// Input is one employee-month of pay elements. Zero values mean "none".
type Input struct {
	BasicSalary        decimal.Decimal `yaml:"basic_salary" json:"basicSalary"`
	PositionAllowance  decimal.Decimal `yaml:"position_allowance" json:"positionAllowance"`
	MealAllowance      decimal.Decimal `yaml:"meal_allowance" json:"mealAllowance"`
	TransportAllowance decimal.Decimal `yaml:"transport_allowance" json:"transportAllowance"`
	FamilyAllowance    decimal.Decimal `yaml:"family_allowance" json:"familyAllowance"`
	OvertimeAllowance  decimal.Decimal `yaml:"overtime_allowance" json:"overtimeAllowance"`
	NightAllowance     decimal.Decimal `yaml:"night_allowance" json:"nightAllowance"`
	HolidayAllowance   decimal.Decimal `yaml:"holiday_allowance" json:"holidayAllowance"`
	OtherAllowances    decimal.Decimal `yaml:"other_allowances" json:"otherAllowances"`
	PerformanceBonus   decimal.Decimal `yaml:"performance_bonus" json:"performanceBonus"`
	AnnualBonus        decimal.Decimal `yaml:"annual_bonus" json:"annualBonus"`
	SpecialBonus       decimal.Decimal `yaml:"special_bonus" json:"specialBonus"`
	UnionFee           decimal.Decimal `yaml:"union_fee" json:"unionFee"`
	OtherDeductions    decimal.Decimal `yaml:"other_deductions" json:"otherDeductions"`
}

type Breakdown struct {
	Input
	TotalAllowances     decimal.Decimal `json:"totalAllowances"`
	TotalBonus          decimal.Decimal `json:"totalBonus"`
	GrossPay            decimal.Decimal `json:"grossPay"`
	NationalPension     decimal.Decimal `json:"nationalPension"`
	HealthInsurance     decimal.Decimal `json:"healthInsurance"`
	EmploymentInsurance decimal.Decimal `json:"employmentInsurance"`
	LongTermCare        decimal.Decimal `json:"longTermCare"`
	TaxableIncome       decimal.Decimal `json:"taxableIncome"`
	IncomeTax           decimal.Decimal `json:"incomeTax"`
	LocalTax            decimal.Decimal `json:"localTax"`
	TotalDeductions     decimal.Decimal `json:"totalDeductions"`
	NetPay              decimal.Decimal `json:"netPay"`
}

func (in Input) allowances() []decimal.Decimal {
	return []decimal.Decimal{
		in.PositionAllowance, in.MealAllowance, in.TransportAllowance, in.FamilyAllowance,
		in.OvertimeAllowance, in.NightAllowance, in.HolidayAllowance, in.OtherAllowances,
	}
}

// Validate rejects negative amounts, naming the first offending field.
func (in Input) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"basicSalary", in.BasicSalary},
		{"positionAllowance", in.PositionAllowance},
		{"mealAllowance", in.MealAllowance},
		{"transportAllowance", in.TransportAllowance},
		{"familyAllowance", in.FamilyAllowance},
		{"overtimeAllowance", in.OvertimeAllowance},
		{"nightAllowance", in.NightAllowance},
		{"holidayAllowance", in.HolidayAllowance},
		{"otherAllowances", in.OtherAllowances},
		{"performanceBonus", in.PerformanceBonus},
		{"annualBonus", in.AnnualBonus},
		{"specialBonus", in.SpecialBonus},
		{"unionFee", in.UnionFee},
		{"otherDeductions", in.OtherDeductions},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return apperr.Validation(f.name, "must not be negative")
		}
	}
	return nil
}

func sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Compute derives the statutory deductions and totals. Amounts are kept
// exact; nothing is rounded.
func Compute(in Input, rates Rates) Breakdown {
	b := Breakdown{Input: in}
	b.TotalAllowances = sum(in.allowances()...)
	b.TotalBonus = sum(in.PerformanceBonus, in.AnnualBonus, in.SpecialBonus)
	b.GrossPay = sum(in.BasicSalary, b.TotalAllowances, b.TotalBonus)

	insured := in.BasicSalary.Add(b.TotalAllowances)
	b.NationalPension = decimal.Min(insured, rates.PensionCap).Mul(rates.PensionRate)
	b.HealthInsurance = insured.Mul(rates.HealthRate)
	b.LongTermCare = b.HealthInsurance.Mul(rates.LongTermCareRate)
	b.EmploymentInsurance = insured.Mul(rates.EmploymentRate)

	b.TaxableIncome = b.GrossPay.Sub(sum(b.NationalPension, b.HealthInsurance, b.EmploymentInsurance))
	b.IncomeTax = IncomeTax(b.TaxableIncome, rates.IncomeTaxBrackets)
	b.LocalTax = b.IncomeTax.Mul(rates.LocalTaxRate)

	b.TotalDeductions = sum(
		b.NationalPension, b.HealthInsurance, b.EmploymentInsurance, b.LongTermCare,
		b.IncomeTax, b.LocalTax, in.UnionFee, in.OtherDeductions,
	)
	b.NetPay = b.GrossPay.Sub(b.TotalDeductions)
	return b
}

// IncomeTax applies progressive brackets. A bracket's upper bound belongs
// to that bracket. Income at or below zero is not taxed.
func IncomeTax(taxable decimal.Decimal, brackets []Bracket) decimal.Decimal {
	if !taxable.IsPositive() {
		return decimal.Zero
	}
	tax := decimal.Zero
	lower := decimal.Zero
	for _, b := range brackets {
		if b.UpTo.IsZero() || taxable.LessThanOrEqual(b.UpTo) {
			return tax.Add(taxable.Sub(lower).Mul(b.Rate))
		}
		tax = tax.Add(b.UpTo.Sub(lower).Mul(b.Rate))
		lower = b.UpTo
	}
	return tax
}
