// Package session turns inbound request credentials into a Principal.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tasklane/tasklane/internal/authz"
	"github.com/tasklane/tasklane/internal/token"
)

// Credential transport surfaces.
const (
	// CookieName carries the signed credential for browser sessions.
	CookieName = "token"
	// HeaderToken carries the same credential for API clients.
	HeaderToken = "access-token"
	// HeaderServiceKey carries the static shared key for internal callers.
	HeaderServiceKey = "access-key"
)

// Resolver extracts and verifies a credential from an inbound request.
type Resolver struct {
	codec       *token.Codec
	denylist    *Denylist
	internalKey string
	logger      *slog.Logger
}

// NewResolver constructs a Resolver. denylist may be nil when revocation is
// not wired (the edge proxy runs without Redis).
func NewResolver(codec *token.Codec, denylist *Denylist, internalKey string, logger *slog.Logger) *Resolver {
	return &Resolver{codec: codec, denylist: denylist, internalKey: internalKey, logger: logger}
}

// Resolve produces the request principal, or nil for anonymous.
//
// Sources are tried in order: cookie token, header token, header service
// key. An invalid or expired token falls through to the next source rather
// than denying outright; denial is the enforcement adapters' job.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) *authz.Principal {
	if cookie, err := req.Cookie(CookieName); err == nil && cookie.Value != "" {
		if p := r.verify(ctx, cookie.Value); p != nil {
			return p
		}
	}

	if raw := req.Header.Get(HeaderToken); raw != "" {
		if p := r.verify(ctx, raw); p != nil {
			return p
		}
	}

	if key := req.Header.Get(HeaderServiceKey); key != "" && r.internalKey != "" {
		if subtle.ConstantTimeCompare([]byte(key), []byte(r.internalKey)) == 1 {
			return authz.ServicePrincipal()
		}
	}

	return nil
}

func (r *Resolver) verify(ctx context.Context, raw string) *authz.Principal {
	claims, err := r.codec.Verify(raw)
	if err != nil {
		if r.logger != nil && !errors.Is(err, token.ErrExpired) {
			r.logger.Warn("credential rejected", slog.Any("error", err))
		}
		return nil
	}

	revoked, err := r.denylist.Revoked(ctx, claims.TokenID)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("denylist lookup", slog.Any("error", err))
		}
		// Fail closed: an unverifiable revocation state is treated as revoked.
		return nil
	}
	if revoked {
		return nil
	}

	p, err := claims.Principal()
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("credential claims rejected", slog.Any("error", err))
		}
		return nil
	}
	return p
}
