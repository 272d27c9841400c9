package payroll

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var exportHeader = []any{
	"Employee number", "Name", "Period", "Basic salary", "Total allowances", "Total bonus", "Gross pay",
	"National pension", "Health insurance", "Long-term care", "Employment insurance",
	"Income tax", "Local tax", "Union fee", "Other deductions", "Total deductions", "Net pay", "Status",
}

func exportRow(r Record) []any {
	b := r.Breakdown
	f := func(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }
	return []any{
		r.EmployeeNumber, r.EmployeeName, r.Period, f(b.BasicSalary), f(b.TotalAllowances), f(b.TotalBonus), f(b.GrossPay),
		f(b.NationalPension), f(b.HealthInsurance), f(b.LongTermCare), f(b.EmploymentInsurance),
		f(b.IncomeTax), f(b.LocalTax), f(b.UnionFee), f(b.OtherDeductions), f(b.TotalDeductions), f(b.NetPay), r.Status,
	}
}

// RenderWorkbook lays the records out one per row on a single sheet.
func RenderWorkbook(period string, records []Record) ([]byte, error) {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	sheet := "Payroll " + period
	if err := file.SetSheetName(file.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	if err := file.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := file.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := exportRow(r)
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := file.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportPeriod renders every record of a period as an XLSX workbook.
func (s *Service) ExportPeriod(ctx context.Context, period string) ([]byte, error) {
	if _, _, err := ParsePeriod(period); err != nil {
		return nil, err
	}
	records, _, err := s.Store.ListRecords(ctx, RecordFilter{Period: period})
	if err != nil {
		return nil, err
	}
	return RenderWorkbook(period, records)
}
