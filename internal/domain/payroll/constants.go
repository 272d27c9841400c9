package payroll

const (
	StatusDraft     = "draft"
	StatusFinalized = "finalized"

	periodLayout = "2006-01"
)
