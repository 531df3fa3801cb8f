// Package token signs and verifies the compact credential that carries a
// principal's identity, role and permission set between requests.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tasklane/tasklane/internal/authz"
)

// Verification failures. Callers branch with errors.Is; verification never
// panics.
var (
	ErrMalformed        = errors.New("token: malformed credential")
	ErrInvalidSignature = errors.New("token: signature mismatch")
	ErrExpired          = errors.New("token: credential expired")
)

type header struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
}

// Claims is the signed payload embedded in a credential.
type Claims struct {
	Subject     string   `json:"sub"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"perms,omitempty"`
	IssuedAt    int64    `json:"iat"`
	ExpiresAt   int64    `json:"exp"`
	TokenID     string   `json:"jti"`
}

// Principal converts verified claims into the request-scoped principal.
// Only call this on claims returned by Verify.
func (c Claims) Principal() (*authz.Principal, error) {
	role, err := authz.ParseRole(c.Role)
	if err != nil {
		return nil, ErrMalformed
	}
	perms, err := authz.ParsePermissions(c.Permissions)
	if err != nil {
		return nil, ErrMalformed
	}
	return &authz.Principal{
		ID:          c.Subject,
		Email:       c.Email,
		Role:        role,
		Permissions: perms,
		IssuedAt:    time.Unix(c.IssuedAt, 0),
		ExpiresAt:   time.Unix(c.ExpiresAt, 0),
	}, nil
}

// Payload carries the identity data to embed at signing time.
type Payload struct {
	Subject     string
	Email       string
	Role        authz.Role
	Permissions []authz.Permission
}

// Issued describes a freshly signed credential.
type Issued struct {
	Token     string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies credentials with a process-wide symmetric secret.
// The secret is fixed at construction; rotating it invalidates every
// outstanding credential.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec builds a Codec. An empty secret is a configuration error and is
// rejected so the process can refuse to start.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("token: signing secret must not be empty")
	}
	return &Codec{secret: []byte(secret), now: time.Now}, nil
}

// WithClock overrides the verification clock, for tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Sign serializes and signs the payload with the given lifetime.
func (c *Codec) Sign(p Payload, ttl time.Duration) (Issued, error) {
	now := c.now().Truncate(time.Second)
	claims := Claims{
		Subject:     p.Subject,
		Email:       p.Email,
		Role:        string(p.Role),
		Permissions: make([]string, 0, len(p.Permissions)),
		IssuedAt:    now.Unix(),
		ExpiresAt:   now.Add(ttl).Unix(),
		TokenID:     uuid.NewString(),
	}
	for _, perm := range p.Permissions {
		claims.Permissions = append(claims.Permissions, string(perm))
	}

	headerJSON, err := json.Marshal(header{Algorithm: "HS256", Type: "JWT"})
	if err != nil {
		return Issued{}, err
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return Issued{}, err
	}

	signing := base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(claimsJSON)
	signature := base64.RawURLEncoding.EncodeToString(c.sign(signing))

	return Issued{
		Token:     signing + "." + signature,
		ID:        claims.TokenID,
		IssuedAt:  now,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0),
	}, nil
}

// Verify checks a raw credential and returns its claims. The signature is
// checked before anything in the payload is trusted; expiry is compared
// against the local clock with zero tolerance. A credential is valid
// strictly while now < exp.
func (c *Codec) Verify(raw string) (Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Claims{}, ErrMalformed
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return Claims{}, ErrMalformed
	}
	expected := c.sign(parts[0] + "." + parts[1])
	if !hmac.Equal(signature, expected) {
		return Claims{}, ErrInvalidSignature
	}

	claims, err := decodeClaims(parts[0], parts[1])
	if err != nil {
		return Claims{}, err
	}

	if !c.now().Before(time.Unix(claims.ExpiresAt, 0)) {
		return Claims{}, ErrExpired
	}
	return claims, nil
}

// PeekClaims decodes claims WITHOUT verifying the signature or expiry. The
// result is unauthenticated data suitable only for non-authoritative UI
// hints; never derive an authorization decision from it.
func PeekClaims(raw string) (Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Claims{}, ErrMalformed
	}
	return decodeClaims(parts[0], parts[1])
}

func decodeClaims(headerPart, claimsPart string) (Claims, error) {
	headerJSON, err := base64.RawURLEncoding.DecodeString(headerPart)
	if err != nil {
		return Claims{}, ErrMalformed
	}
	var hdr header
	if err := json.Unmarshal(headerJSON, &hdr); err != nil {
		return Claims{}, ErrMalformed
	}
	if hdr.Algorithm != "HS256" || hdr.Type != "JWT" {
		return Claims{}, ErrMalformed
	}

	claimsJSON, err := base64.RawURLEncoding.DecodeString(claimsPart)
	if err != nil {
		return Claims{}, ErrMalformed
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return Claims{}, ErrMalformed
	}
	if claims.Subject == "" || claims.Role == "" || claims.ExpiresAt == 0 {
		return Claims{}, ErrMalformed
	}
	return claims, nil
}

func (c *Codec) sign(signing string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(signing))
	return mac.Sum(nil)
}
