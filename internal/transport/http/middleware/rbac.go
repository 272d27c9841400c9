package middleware

import (
	"log/slog"
	"net/http"

	"hrms/internal/domain/auth"
	"hrms/internal/transport/http/api"
)

// RequirePermission checks the caller's role against the static grant table.
// Record-level ownership (a user reading only their own leave or payslips)
// is enforced further in, by handlers and services.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
				return
			}
			if !auth.HasPermission(user.Role, permission) {
				slog.Info("permission denied", "user", user.UserID, "role", user.Role, "permission", permission, "path", r.URL.Path, "requestId", requestID)
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
