package leave

import (
	"errors"
	"testing"
	"time"

	"hrms/internal/platform/apperr"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCountWeekdays(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		want       float64
	}{
		{"monday to friday", date(2025, 3, 3), date(2025, 3, 7), 5},
		{"weekend adds nothing", date(2025, 3, 3), date(2025, 3, 9), 5},
		{"saturday only", date(2025, 3, 8), date(2025, 3, 8), 0},
		{"single weekday", date(2025, 3, 10), date(2025, 3, 10), 1},
		{"two weeks", date(2025, 3, 3), date(2025, 3, 14), 10},
	}
	for _, tc := range cases {
		got, err := CountWeekdays(tc.start, tc.end)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v days, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCountWeekdaysInvalid(t *testing.T) {
	if _, err := CountWeekdays(date(2025, 2, 10), date(2025, 2, 9)); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestRangeIsCapped(t *testing.T) {
	start := date(2025, 1, 1)
	if _, err := CountWeekdays(start, date(2025, 12, 31)); err != nil {
		t.Fatalf("a one year range should be accepted: %v", err)
	}
	far := date(9999, 12, 31)
	_, err := CountWeekdays(start, far)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Field != "endDate" {
		t.Fatalf("expected endDate validation error, got %v", err)
	}
	if _, err := SplitDaysByYear(start, far); err == nil {
		t.Fatal("expected split to refuse a multi-millennium range")
	}
}

func TestSplitDaysByYear(t *testing.T) {
	// Mon 2024-12-30 .. Fri 2025-01-03
	portions, err := SplitDaysByYear(date(2024, 12, 30), date(2025, 1, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(portions) != 2 {
		t.Fatalf("expected 2 portions, got %d", len(portions))
	}
	if portions[0].Year != 2024 || portions[0].Days != 2 {
		t.Fatalf("unexpected 2024 portion: %+v", portions[0])
	}
	if portions[1].Year != 2025 || portions[1].Days != 3 || !portions[1].FirstDay.Equal(date(2025, 1, 1)) {
		t.Fatalf("unexpected 2025 portion: %+v", portions[1])
	}

	// Sat 2022-12-31 .. Mon 2023-01-02: only one weekday, in 2023
	portions, _ = SplitDaysByYear(date(2022, 12, 31), date(2023, 1, 2))
	if len(portions) != 1 || portions[0].Year != 2023 || portions[0].Days != 1 {
		t.Fatalf("unexpected portions: %+v", portions)
	}
}

func TestCheckUsage(t *testing.T) {
	if err := CheckUsage(15, 13, 2); err != nil {
		t.Fatalf("exact remaining should pass: %v", err)
	}
	if err := CheckUsage(15, 15, 1); err != ErrInsufficientBalance {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}
