package bonus

const (
	CalculationDraft       = "draft"
	CalculationCalculating = "calculating"
	CalculationCompleted   = "completed"
	CalculationApproved    = "approved"
	CalculationPaid        = "paid"
)

const (
	DistributionCalculated = "calculated"
	DistributionApproved   = "approved"
	DistributionPaid       = "paid"
)

const (
	defaultIndividualScore = 70.0
	defaultTeamScore       = 70.0
	defaultCompanyScore    = 75.0

	ratioTolerance         = 0.01
	multiplierWarningLevel = 5.0
)

// DefaultPolicyTypes are offered alongside the types already in use.
var DefaultPolicyTypes = []string{"annual", "quarterly", "project", "special"}

var scoredResultStatuses = map[string]bool{"completed": true, "approved": true}
