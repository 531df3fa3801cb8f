package session

import (
	"log/slog"
	"net/http"

	"github.com/tasklane/tasklane/internal/authz"
	"github.com/tasklane/tasklane/internal/observability"
	"github.com/tasklane/tasklane/internal/platform/httpx"
)

// DefaultOpenPaths lists request paths exempt from authentication.
func DefaultOpenPaths() []string {
	return []string{"/health", "/auth/login", "/auth/register"}
}

// Middleware authenticates every request outside the open-paths list and
// stores the resolved principal in the request context.
type Middleware struct {
	Resolver  *Resolver
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	OpenPaths []string
}

// Authenticate rejects requests that present no usable credential with 401.
// Open paths pass through with no principal attached.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	open := make(map[string]struct{}, len(m.OpenPaths))
	paths := m.OpenPaths
	if paths == nil {
		paths = DefaultOpenPaths()
	}
	for _, p := range paths {
		open[p] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := open[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		p := m.Resolver.Resolve(r.Context(), r)
		if p == nil {
			if m.Logger != nil {
				m.Logger.Info("authentication failed", slog.String("path", r.URL.Path))
			}
			m.Metrics.RecordAuthnFailure()
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication failed")
			return
		}

		next.ServeHTTP(w, r.WithContext(authz.ContextWithPrincipal(r.Context(), p)))
	})
}
