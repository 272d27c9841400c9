package leave

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	TypeAnnual      = "annual"
	TypeSick        = "sick"
	TypeFamilyEvent = "family_event"
	TypeOther       = "other"
)

var (
	Statuses = []string{StatusPending, StatusApproved, StatusRejected}
	Types    = []string{TypeAnnual, TypeSick, TypeFamilyEvent, TypeOther}
)
