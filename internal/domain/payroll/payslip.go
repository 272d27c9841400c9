package payroll

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"hrms/internal/domain/auth"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(0)
}

type line struct {
	label  string
	amount decimal.Decimal
}

// RenderPayslip writes a one-page A4 payslip for r.
func RenderPayslip(r Record) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Payslip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Employee: %s (%s)", r.EmployeeName, r.EmployeeNumber))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s", r.Period))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s", r.Status))
	pdf.Ln(10)

	section := func(title string, lines []line, totalLabel string, total decimal.Decimal) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, title)
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		for _, l := range lines {
			if l.amount.IsZero() {
				continue
			}
			pdf.CellFormat(120, 6, l.label, "", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, money(l.amount), "", 1, "R", false, 0, "")
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(120, 7, totalLabel, "T", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, money(total), "T", 1, "R", false, 0, "")
		pdf.Ln(4)
	}

	b := r.Breakdown
	section("Earnings", []line{
		{"Basic salary", b.BasicSalary},
		{"Position allowance", b.PositionAllowance},
		{"Meal allowance", b.MealAllowance},
		{"Transport allowance", b.TransportAllowance},
		{"Family allowance", b.FamilyAllowance},
		{"Overtime allowance", b.OvertimeAllowance},
		{"Night allowance", b.NightAllowance},
		{"Holiday allowance", b.HolidayAllowance},
		{"Other allowances", b.OtherAllowances},
		{"Performance bonus", b.PerformanceBonus},
		{"Annual bonus", b.AnnualBonus},
		{"Special bonus", b.SpecialBonus},
	}, "Gross pay", b.GrossPay)

	section("Deductions", []line{
		{"National pension", b.NationalPension},
		{"Health insurance", b.HealthInsurance},
		{"Long-term care", b.LongTermCare},
		{"Employment insurance", b.EmploymentInsurance},
		{"Income tax", b.IncomeTax},
		{"Local income tax", b.LocalTax},
		{"Union fee", b.UnionFee},
		{"Other deductions", b.OtherDeductions},
	}, "Total deductions", b.TotalDeductions)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(120, 9, "Net pay", "", 0, "L", false, 0, "")
	pdf.CellFormat(50, 9, money(b.NetPay), "", 1, "R", false, 0, "")
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Work days %d, overtime %.1fh, night %.1fh, holiday %.1fh", r.WorkDays, r.OvertimeHours, r.NightHours, r.HolidayHours))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Payslip renders the PDF for a record the user may read.
func (s *Service) Payslip(ctx context.Context, user auth.UserContext, id string) (Record, []byte, error) {
	r, err := s.GetRecord(ctx, user, id)
	if err != nil {
		return Record{}, nil, err
	}
	data, err := RenderPayslip(r)
	if err != nil {
		return Record{}, nil, err
	}
	return r, data, nil
}
