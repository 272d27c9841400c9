package leave

import (
	"fmt"
	"time"

	"hrms/internal/platform/apperr"
)

// MaxRangeDays bounds a single leave range.
const MaxRangeDays = 366

func checkRange(start, end time.Time) error {
	if end.Before(start) {
		return apperr.Validation("endDate", "must be on or after startDate")
	}
	if end.Sub(start) >= MaxRangeDays*24*time.Hour {
		return apperr.Validation("endDate", fmt.Sprintf("range cannot exceed %d days", MaxRangeDays))
	}
	return nil
}

// CountWeekdays returns the inclusive number of Monday to Friday dates
// between start and end. No holiday calendar is consulted.
func CountWeekdays(start, end time.Time) (float64, error) {
	if err := checkRange(start, end); err != nil {
		return 0, err
	}
	var days float64
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if isWeekday(d) {
			days++
		}
	}
	return days, nil
}

func isWeekday(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// SplitDaysByYear breaks a range into per-year weekday counts. Years with
// no weekdays in range are omitted.
func SplitDaysByYear(start, end time.Time) ([]YearPortion, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	var out []YearPortion
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !isWeekday(d) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Year == d.Year() {
			out[n-1].Days++
			continue
		}
		out = append(out, YearPortion{Year: d.Year(), Days: 1, FirstDay: d})
	}
	return out, nil
}

// CheckUsage fails when days would take the ledger below zero.
func CheckUsage(granted, used, days float64) error {
	if days > granted-used {
		return ErrInsufficientBalance
	}
	return nil
}
