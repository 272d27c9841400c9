package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/payroll"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCalcPayrollPrintsBreakdown(t *testing.T) {
	input := writeFile(t, "input.yaml", "basic_salary: \"3000000\"\nmeal_allowance: \"200000\"\nunion_fee: \"10000\"\n")

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"calc", "payroll", "--file", input})
	require.NoError(t, cmd.Execute())

	var got payroll.Breakdown
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.True(t, decimal.NewFromInt(3200000).Equal(got.GrossPay), got.GrossPay.String())
	want := payroll.Compute(payroll.Input{
		BasicSalary:   decimal.NewFromInt(3000000),
		MealAllowance: decimal.NewFromInt(200000),
		UnionFee:      decimal.NewFromInt(10000),
	}, payroll.DefaultRates())
	assert.True(t, want.NetPay.Equal(got.NetPay))
}

func TestCalcPayrollUsesRatesFile(t *testing.T) {
	input := writeFile(t, "input.yaml", "basic_salary: \"1000000\"\n")
	rates := writeFile(t, "rates.yaml", "local_tax_rate: \"0\"\nincome_tax_brackets:\n  - rate: \"0\"\n")

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"calc", "payroll", "-f", input, "--rates", rates})
	require.NoError(t, cmd.Execute())

	var got payroll.Breakdown
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.True(t, got.IncomeTax.IsZero())
	assert.True(t, got.LocalTax.IsZero())
}

func TestCalcPayrollRejectsNegative(t *testing.T) {
	input := writeFile(t, "input.yaml", "basic_salary: \"-1\"\n")
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"calc", "payroll", "--file", input})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "basicSalary")
}

func TestCalcPayrollNeedsFile(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"calc", "payroll"})
	assert.Error(t, cmd.Execute())
}
