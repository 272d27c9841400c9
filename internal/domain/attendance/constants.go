package attendance

const (
	StatusPresent    = "present"
	StatusLate       = "late"
	StatusEarlyLeave = "early_leave"
	StatusAbsent     = "absent"
)

const (
	startHour = 9
	endHour   = 18

	lunchThresholdHours = 8.0
	lunchBreakHours     = 1.0
)
