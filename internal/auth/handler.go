package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/tasklane/tasklane/internal/authz"
	"github.com/tasklane/tasklane/internal/platform/httpx"
	"github.com/tasklane/tasklane/internal/session"
	"github.com/tasklane/tasklane/internal/token"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	codec        *token.Codec
	denylist     *session.Denylist
	validator    *validator.Validate
	tokenTTL     time.Duration
	secureCookie bool
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, codec *token.Codec, denylist *session.Denylist, tokenTTL time.Duration, secureCookie bool) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		codec:        codec,
		denylist:     denylist,
		validator:    validator.New(),
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
	}
}

const (
	credentialRateLimit  = 10
	credentialRateWindow = time.Minute
)

// MountRoutes registers auth routes on the provided router. The credential
// endpoints carry their own per-IP limiter on top of the global one, so a
// single address cannot brute-force passwords at the global rate.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(credentialRateLimit, credentialRateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "too many attempts, retry later")
		}),
	)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Post("/login", h.handleLogin)
		gr.Post("/register", h.handleRegister)
	})
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type userResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form credentialsRequest
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}

	h.issueAndRespond(w, r, user, http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form credentialsRequest
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "email is already registered")
			return
		}
		h.logger.Error("register user", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	// Self-signup logs the user straight in, same as login.
	h.issueAndRespond(w, r, user, http.StatusCreated)
}

func (h *Handler) issueAndRespond(w http.ResponseWriter, r *http.Request, user *User, status int) {
	issued, err := h.codec.Sign(token.Payload{
		Subject:     strconv.FormatInt(user.ID, 10),
		Email:       user.Email,
		Role:        user.Role,
		Permissions: user.Permissions,
	}, h.tokenTTL)
	if err != nil {
		h.logger.Error("sign credential", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	sess := Session{
		ID:        issued.ID,
		UserID:    user.ID,
		IssuedAt:  issued.IssuedAt,
		ExpiresAt: issued.ExpiresAt,
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	if err := h.service.RegisterSession(r.Context(), sess); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	session.SetTokenCookie(w, issued.Token, issued.ExpiresAt, h.secureCookie)
	httpx.OK(w, status, "login successful", tokenResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		User:      toUserResponse(user),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if raw := rawToken(r); raw != "" {
		if claims, err := h.codec.Verify(raw); err == nil {
			if err := h.denylist.Revoke(r.Context(), claims.TokenID, time.Unix(claims.ExpiresAt, 0)); err != nil {
				h.logger.Warn("revoke credential", slog.Any("error", err))
			}
			if err := h.service.RemoveSession(r.Context(), claims.TokenID); err != nil {
				h.logger.Warn("remove session", slog.Any("error", err))
			}
		}
	}
	session.ClearTokenCookie(w, h.secureCookie)
	httpx.OK(w, http.StatusOK, "logged out", nil)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFromContext(r.Context())
	if p == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	perms := make([]string, 0, len(p.Permissions))
	for _, perm := range p.Permissions {
		perms = append(perms, string(perm))
	}
	httpx.OK(w, http.StatusOK, "", userResponse{
		ID:          p.ID,
		Email:       p.Email,
		Role:        string(p.Role),
		Permissions: perms,
	})
}

func rawToken(r *http.Request) string {
	if cookie, err := r.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get(session.HeaderToken)
}

func toUserResponse(user *User) userResponse {
	perms := make([]string, 0, len(user.Permissions))
	for _, p := range user.Permissions {
		perms = append(perms, string(p))
	}
	return userResponse{
		ID:          strconv.FormatInt(user.ID, 10),
		Email:       user.Email,
		Role:        string(user.Role),
		Permissions: perms,
	}
}
