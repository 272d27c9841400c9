package attendance

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// WorkHours returns hours between check-in and check-out. A check-out
// earlier than the check-in is taken to be on the next day. Shifts of eight
// hours or more lose one hour for lunch.
func WorkHours(in, out time.Time) float64 {
	if out.Before(in) {
		out = out.Add(24 * time.Hour)
	}
	hours := out.Sub(in).Hours()
	if hours >= lunchThresholdHours {
		hours -= lunchBreakHours
	}
	return math.Round(hours*100) / 100
}

// DetermineStatus classifies a day from its wall-clock times.
func DetermineStatus(in, out *time.Time) string {
	switch {
	case in == nil:
		return StatusAbsent
	case afterClock(*in, startHour):
		return StatusLate
	case out != nil && !afterClock(*out, endHour) && !atClock(*out, endHour):
		return StatusEarlyLeave
	default:
		return StatusPresent
	}
}

func afterClock(t time.Time, hour int) bool {
	h, m, s := t.Clock()
	return h > hour || (h == hour && (m > 0 || s > 0))
}

func atClock(t time.Time, hour int) bool {
	h, m, s := t.Clock()
	return h == hour && m == 0 && s == 0
}

// ParseClock places an HH:MM or HH:MM:SS wall time on day in loc.
func ParseClock(day time.Time, raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var parsed time.Time
	var err error
	for _, layout := range []string{"15:04:05", "15:04"} {
		if parsed, err = time.Parse(layout, raw); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("invalid time %q", raw)
	}
	t := time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), parsed.Second(), 0, loc)
	return &t, nil
}

// Summarize folds a month of records into per-status counts.
func Summarize(employeeID string, year, month int, records []Record) MonthlySummary {
	summary := MonthlySummary{
		EmployeeID: employeeID,
		Year:       year,
		Month:      month,
		ByStatus: map[string]int{
			StatusPresent:    0,
			StatusLate:       0,
			StatusEarlyLeave: 0,
			StatusAbsent:     0,
		},
	}
	for _, r := range records {
		summary.Days++
		summary.ByStatus[r.Status]++
		summary.TotalHours += r.WorkHours
	}
	summary.TotalHours = math.Round(summary.TotalHours*100) / 100
	return summary
}
