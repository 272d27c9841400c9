package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, raw string) *time.Time {
	t.Helper()
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	parsed, err := ParseClock(day, raw, time.UTC)
	require.NoError(t, err)
	return parsed
}

func TestWorkHours(t *testing.T) {
	cases := []struct {
		name     string
		in, out  string
		expected float64
	}{
		{"full day subtracts lunch", "09:00", "18:00", 8},
		{"exactly eight hours subtracts lunch", "09:00", "17:00", 7},
		{"short day keeps all hours", "09:00", "16:30", 7.5},
		{"overnight shift wraps", "22:00", "07:00", 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, WorkHours(*clock(t, tc.in), *clock(t, tc.out)), 0.001)
		})
	}
}

func TestDetermineStatus(t *testing.T) {
	assert.Equal(t, StatusAbsent, DetermineStatus(nil, nil))
	assert.Equal(t, StatusPresent, DetermineStatus(clock(t, "09:00"), nil))
	assert.Equal(t, StatusLate, DetermineStatus(clock(t, "09:00:01"), clock(t, "18:00")))
	assert.Equal(t, StatusEarlyLeave, DetermineStatus(clock(t, "08:50"), clock(t, "17:59")))
	assert.Equal(t, StatusPresent, DetermineStatus(clock(t, "08:50"), clock(t, "18:00")))
}

func TestParseClockRejectsGarbage(t *testing.T) {
	_, err := ParseClock(time.Now(), "9am", time.UTC)
	assert.Error(t, err)

	empty, err := ParseClock(time.Now(), "", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestSummarize(t *testing.T) {
	summary := Summarize("e1", 2025, 3, []Record{
		{Status: StatusPresent, WorkHours: 8},
		{Status: StatusLate, WorkHours: 7.5},
		{Status: StatusAbsent},
	})
	assert.Equal(t, 3, summary.Days)
	assert.Equal(t, 1, summary.ByStatus[StatusLate])
	assert.Equal(t, 0, summary.ByStatus[StatusEarlyLeave])
	assert.InDelta(t, 15.5, summary.TotalHours, 0.001)
}
