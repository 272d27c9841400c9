package bonus

import "hrms/internal/platform/apperr"

var (
	ErrPolicyNotFound       = apperr.NotFound("bonus_policy_not_found", "bonus policy not found")
	ErrPolicyNameTaken      = apperr.Duplicate("bonus_policy_name_taken", "a bonus policy with this name already exists")
	ErrPolicyIsDefault      = apperr.InvalidState("bonus_policy_default", "the default policy cannot be deleted")
	ErrPolicyInUse          = apperr.InvalidState("bonus_policy_in_use", "policy is used by a calculation; deactivate it instead")
	ErrPolicyInactive       = apperr.InvalidState("bonus_policy_inactive", "policy is not active")
	ErrCalculationNotFound  = apperr.NotFound("bonus_calculation_not_found", "bonus calculation not found")
	ErrDistributionNotFound = apperr.NotFound("bonus_distribution_not_found", "bonus distribution not found")
	ErrCannotRun            = apperr.InvalidState("bonus_calculation_done", "calculation has already been completed")
	ErrNotCompleted         = apperr.InvalidState("bonus_calculation_not_completed", "calculation must be completed")
	ErrNotApproved          = apperr.InvalidState("bonus_distribution_not_approved", "only approved distributions can be paid")
	ErrAlreadyPaid          = apperr.InvalidState("bonus_distribution_paid", "distribution has already been paid")
	ErrHasPayments          = apperr.Immutable("bonus_calculation_paid", "calculation has payment history and cannot be deleted")
	ErrEmptyRoster          = apperr.Validation("roster", "no active employees to distribute to")
	ErrNoEmployee           = apperr.Forbidden("no_employee_linked", "user is not linked to an employee")

	errTotalAmount = apperr.Validation("totalAmount", "must be greater than zero")
)
