package reports

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/jung-kurt/gofpdf"
)

type row struct {
	section, metric, value string
}

func itoa(v int) string { return strconv.Itoa(v) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func summaryRows(s Summary) []row {
	return []row{
		{"employee", "total_employees", itoa(s.Headcount.Employees)},
		{"employee", "active_employees", itoa(s.Headcount.ActiveEmployees)},
		{"employee", "departments", itoa(s.Headcount.Departments)},
		{"attendance", "total_days", itoa(s.Attendance.Records)},
		{"attendance", "avg_hours", ftoa(s.Attendance.AvgWorkHours)},
		{"attendance", "late_days", itoa(s.Attendance.Late)},
		{"attendance", "absent_days", itoa(s.Attendance.Absent)},
		{"attendance", "attendance_rate", ftoa(s.Attendance.AttendanceRate)},
		{"payroll", "total_payrolls", itoa(s.Payroll.Records)},
		{"payroll", "total_gross", s.Payroll.TotalGross.String()},
		{"payroll", "total_net", s.Payroll.TotalNet.String()},
		{"payroll", "total_deductions", s.Payroll.TotalDeductions.String()},
		{"payroll", "avg_net", s.Payroll.AvgNet.String()},
		{"evaluation", "total_evaluations", itoa(s.Evaluation.Evaluations)},
		{"evaluation", "completed", itoa(s.Evaluation.Completed)},
		{"evaluation", "completion_rate", ftoa(s.Evaluation.CompletionRate)},
		{"evaluation", "avg_score", ftoa(s.Evaluation.AvgScore)},
		{"bonus", "total_calculations", itoa(s.Bonus.Calculations)},
		{"bonus", "total_amount", s.Bonus.TotalAmount.String()},
	}
}

func RenderSummaryCSV(s Summary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"period", "section", "metric", "value"}); err != nil {
		return nil, err
	}
	for _, r := range summaryRows(s) {
		if err := w.Write([]string{s.Period, r.section, r.metric, r.value}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func RenderSummaryPDF(s Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "HR summary report")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, "Period: "+s.Period)
	pdf.Ln(10)

	section := ""
	for _, r := range summaryRows(s) {
		if r.section != section {
			section = r.section
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(0, 8, section, "B", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.CellFormat(110, 6, r.metric, "", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, r.value, "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
