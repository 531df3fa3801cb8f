// Package edge implements the routing middleware enforced in front of the
// web frontend: it verifies the session cookie, applies per-section access
// rules and forwards allowed requests upstream.
//
// The proxy checks signature and expiry only and deliberately skips the
// revocation denylist; the upstream resolver consults it on every request,
// so a revoked credential is still rejected before any handler runs.
package edge

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/tasklane/tasklane/internal/authz"
	"github.com/tasklane/tasklane/internal/session"
	"github.com/tasklane/tasklane/internal/token"
)

// Config collects the proxy dependencies.
type Config struct {
	Upstream     *url.URL
	Codec        *token.Codec
	Logger       *slog.Logger
	Rules        []Rule
	PublicPaths  []string
	SecureCookie bool
}

// Proxy is the edge enforcement adapter. It never serves application
// content itself; every allowed request is forwarded upstream.
type Proxy struct {
	upstream     *httputil.ReverseProxy
	codec        *token.Codec
	logger       *slog.Logger
	rules        []Rule
	public       map[string]struct{}
	secureCookie bool
}

// NewProxy constructs the edge proxy. Nil Rules/PublicPaths fall back to
// the defaults.
func NewProxy(cfg Config) *Proxy {
	rules := cfg.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	paths := cfg.PublicPaths
	if paths == nil {
		paths = DefaultPublicPaths()
	}
	public := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		public[p] = struct{}{}
	}
	return &Proxy{
		upstream:     httputil.NewSingleHostReverseProxy(cfg.Upstream),
		codec:        cfg.Codec,
		logger:       cfg.Logger,
		rules:        rules,
		public:       public,
		secureCookie: cfg.SecureCookie,
	}
}

// ServeHTTP applies the routing policy:
//
//	no token on a non-public path        -> redirect to login
//	invalid or expired token             -> clear cookie, redirect to login
//	authenticated user on an auth path   -> redirect to the landing page
//	matching rule denies                 -> redirect to the unauthorized page
//	otherwise                            -> forward upstream
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	var raw string
	if cookie, err := r.Cookie(session.CookieName); err == nil {
		raw = cookie.Value
	}

	_, isPublic := p.public[path]
	isAuthPath := strings.HasPrefix(path, AuthPrefix)

	if raw == "" {
		if !isPublic {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		p.upstream.ServeHTTP(w, r)
		return
	}

	claims, err := p.codec.Verify(raw)
	if err != nil {
		// Expired and tampered credentials are treated the same as absent
		// ones, except the stale cookie is cleared on the way out.
		if p.logger != nil {
			p.logger.Info("edge credential rejected", slog.Any("error", err))
		}
		session.ClearTokenCookie(w, p.secureCookie)
		if !isPublic {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		p.upstream.ServeHTTP(w, r)
		return
	}

	if isAuthPath {
		http.Redirect(w, r, HomePath, http.StatusSeeOther)
		return
	}

	principal, err := claims.Principal()
	if err != nil {
		session.ClearTokenCookie(w, p.secureCookie)
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}

	for _, rule := range p.rules {
		if !strings.HasPrefix(path, rule.Prefix) {
			continue
		}
		if authz.Authorize(principal, rule.Requirement).Authorized {
			break
		}
		http.Redirect(w, r, UnauthorizedPath, http.StatusSeeOther)
		return
	}

	p.upstream.ServeHTTP(w, r)
}
