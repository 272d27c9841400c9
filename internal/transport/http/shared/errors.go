package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"hrms/internal/domain/auth"
	"hrms/internal/platform/apperr"
	"hrms/internal/requestctx"
	"hrms/internal/transport/http/api"
)

// StatusFor maps a domain error kind to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrSessionInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrImmutable):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// FailError writes the envelope for err. Unclassified errors are logged and
// reported as a generic 500 so internals do not leak.
func FailError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestctx.GetRequestID(r.Context())
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, status, "internal_error", "internal server error", requestID)
		return
	}
	appErr, ok := apperr.As(err)
	if !ok {
		api.Fail(w, status, "error", err.Error(), requestID)
		return
	}
	if appErr.Field != "" {
		FailValidation(w, requestID, []ValidationIssue{{Field: appErr.Field, Reason: appErr.Message}})
		return
	}
	api.Fail(w, status, appErr.Code, appErr.Message, requestID)
}
