package authz

import (
	"log/slog"
	"net/http"

	"github.com/tasklane/tasklane/internal/observability"
	"github.com/tasklane/tasklane/internal/platform/httpx"
)

// Middleware wires policy enforcement for HTTP handlers.
type Middleware struct {
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Require denies requests whose principal fails the requirement. Anonymous
// requests receive 401, authenticated but insufficient ones 403.
func (m Middleware) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			verdict := Authorize(p, req)
			if verdict.Authorized {
				next.ServeHTTP(w, r)
				return
			}

			if m.Logger != nil {
				m.Logger.Warn("authorization denied",
					slog.String("path", r.URL.Path),
					slog.String("reason", string(verdict.Reason)))
			}
			m.Metrics.RecordAuthzDenial(string(verdict.Reason))

			if verdict.Reason == ReasonNoPrincipal {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role or permissions")
		})
	}
}
