package payroll

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Bracket taxes the slice of income above the previous bracket's bound up
// to and including UpTo. A zero UpTo marks the open top bracket.
type Bracket struct {
	UpTo decimal.Decimal `yaml:"up_to" json:"upTo"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

type Rates struct {
	PensionRate       decimal.Decimal `yaml:"pension_rate" json:"pensionRate"`
	PensionCap        decimal.Decimal `yaml:"pension_cap" json:"pensionCap"`
	HealthRate        decimal.Decimal `yaml:"health_rate" json:"healthRate"`
	LongTermCareRate  decimal.Decimal `yaml:"long_term_care_rate" json:"longTermCareRate"`
	EmploymentRate    decimal.Decimal `yaml:"employment_rate" json:"employmentRate"`
	LocalTaxRate      decimal.Decimal `yaml:"local_tax_rate" json:"localTaxRate"`
	IncomeTaxBrackets []Bracket       `yaml:"income_tax_brackets" json:"incomeTaxBrackets"`
}

func DefaultRates() Rates {
	return Rates{
		PensionRate:      decimal.RequireFromString("0.045"),
		PensionCap:       decimal.NewFromInt(5_530_000),
		HealthRate:       decimal.RequireFromString("0.03545"),
		LongTermCareRate: decimal.RequireFromString("0.1295"),
		EmploymentRate:   decimal.RequireFromString("0.009"),
		LocalTaxRate:     decimal.RequireFromString("0.10"),
		IncomeTaxBrackets: []Bracket{
			{UpTo: decimal.NewFromInt(1_200_000), Rate: decimal.RequireFromString("0.06")},
			{UpTo: decimal.NewFromInt(4_600_000), Rate: decimal.RequireFromString("0.15")},
			{UpTo: decimal.NewFromInt(8_800_000), Rate: decimal.RequireFromString("0.24")},
			{Rate: decimal.RequireFromString("0.35")},
		},
	}
}

// LoadRates reads a YAML override on top of the defaults. Keys left out of
// the file keep their default value; a bracket list replaces the default
// list as a whole. An empty path returns the defaults.
func LoadRates(path string) (Rates, error) {
	rates := DefaultRates()
	if path == "" {
		return rates, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rates{}, fmt.Errorf("read payroll rates %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &rates); err != nil {
		return Rates{}, fmt.Errorf("parse payroll rates: %w", err)
	}
	if err := rates.Validate(); err != nil {
		return Rates{}, fmt.Errorf("payroll rates %s: %w", path, err)
	}
	return rates, nil
}

func (r Rates) Validate() error {
	if len(r.IncomeTaxBrackets) == 0 {
		return errors.New("at least one income tax bracket is required")
	}
	prev := decimal.Zero
	for i, b := range r.IncomeTaxBrackets {
		last := i == len(r.IncomeTaxBrackets)-1
		if b.UpTo.IsZero() && !last {
			return fmt.Errorf("bracket %d: only the last bracket may be open", i)
		}
		if !b.UpTo.IsZero() && !b.UpTo.GreaterThan(prev) {
			return fmt.Errorf("bracket %d: bounds must increase", i)
		}
		if b.Rate.IsNegative() {
			return fmt.Errorf("bracket %d: rate must not be negative", i)
		}
		prev = b.UpTo
	}
	if !r.IncomeTaxBrackets[len(r.IncomeTaxBrackets)-1].UpTo.IsZero() {
		return errors.New("the last bracket must be open")
	}
	return nil
}
