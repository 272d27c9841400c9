package performance

import "hrms/internal/platform/apperr"

var (
	ErrCriteriaNotFound   = apperr.NotFound("criteria_not_found", "evaluation criteria not found")
	ErrEvaluationNotFound = apperr.NotFound("evaluation_not_found", "evaluation not found")
	ErrResultNotFound     = apperr.NotFound("evaluation_result_not_found", "evaluation result not found")
	ErrDuplicateResult    = apperr.Duplicate("duplicate_evaluation_result", "result already exists for this evaluation, employee and evaluator")
	ErrCriteriaInUse      = apperr.InvalidState("criteria_in_use", "criteria is used by an evaluation")
	ErrNotCompleted       = apperr.InvalidState("result_not_completed", "only completed results can be approved")
	ErrResultApproved     = apperr.InvalidState("result_approved", "approved results cannot change")
	ErrEvaluationClosed   = apperr.InvalidState("evaluation_closed", "evaluation is closed")
	ErrBadTransition      = apperr.InvalidState("evaluation_bad_transition", "evaluation status cannot move that way")
)
