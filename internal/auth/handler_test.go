package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/tasklane/tasklane/internal/auth"
	"github.com/tasklane/tasklane/internal/authz"
	"github.com/tasklane/tasklane/internal/session"
	"github.com/tasklane/tasklane/internal/token"
	_ "github.com/tasklane/tasklane/testing"
)

type stubRepo struct {
	user     *auth.User
	taken    bool
	sessions map[string]auth.Session
}

func newStubRepo() *stubRepo {
	return &stubRepo{sessions: make(map[string]auth.Session)}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, auth.ErrInvalidCredentials
	}
	return s.user, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, user *auth.User) (*auth.User, error) {
	if s.taken {
		return nil, auth.ErrEmailTaken
	}
	created := *user
	created.ID = 11
	return &created, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, sess auth.Session) error {
	s.sessions[sess.ID] = sess
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type authEnv struct {
	router   http.Handler
	codec    *token.Codec
	denylist *session.Denylist
	repo     *stubRepo
}

func newAuthEnv(t *testing.T, repo *stubRepo) authEnv {
	t.Helper()

	codec, err := token.NewCodec("handler-test-secret")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	denylist := session.NewDenylist(client)

	handler := auth.NewHandler(nil, auth.NewService(repo), codec, denylist, time.Hour, false)
	resolver := session.NewResolver(codec, denylist, "", nil)
	mw := session.Middleware{Resolver: resolver}

	r := chi.NewRouter()
	r.Use(mw.Authenticate)
	r.Route("/auth", handler.MountRoutes)

	return authEnv{router: r, codec: codec, denylist: denylist, repo: repo}
}

func activeUser(t *testing.T, email, password string) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &auth.User{
		ID:           7,
		Email:        email,
		PasswordHash: string(hash),
		Role:         authz.RoleUser,
		Permissions:  []authz.Permission{authz.PermViewTodo},
		IsActive:     true,
	}
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginSuccess(t *testing.T) {
	repo := newStubRepo()
	repo.user = activeUser(t, "person@example.com", "correct-horse")
	env := newAuthEnv(t, repo)

	rec := postJSON(env.router, "/auth/login", `{"email":"person@example.com","password":"correct-horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
			User  struct {
				ID   string `json:"id"`
				Role string `json:"role"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
	if envelope.Data.User.ID != "7" || envelope.Data.User.Role != "user" {
		t.Fatalf("unexpected user payload: %+v", envelope.Data.User)
	}

	claims, err := env.codec.Verify(envelope.Data.Token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}
	if _, ok := repo.sessions[claims.TokenID]; !ok {
		t.Fatal("expected session metadata to be recorded")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != session.CookieName || cookies[0].Value == "" {
		t.Fatalf("expected token cookie, got %+v", cookies)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubRepo()
	repo.user = activeUser(t, "person@example.com", "correct-horse")
	env := newAuthEnv(t, repo)

	rec := postJSON(env.router, "/auth/login", `{"email":"person@example.com","password":"battery-staple"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newStubRepo()
	repo.user = activeUser(t, "person@example.com", "correct-horse")
	repo.user.IsActive = false
	env := newAuthEnv(t, repo)

	rec := postJSON(env.router, "/auth/login", `{"email":"person@example.com","password":"correct-horse"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive account, got %d", rec.Code)
	}
}

func TestLoginValidation(t *testing.T) {
	env := newAuthEnv(t, newStubRepo())

	for _, body := range []string{
		`{"email":"not-an-email","password":"long-enough"}`,
		`{"email":"person@example.com","password":"short"}`,
		`{}`,
		`not json`,
	} {
		rec := postJSON(env.router, "/auth/login", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestRegisterIssuesStarterGrants(t *testing.T) {
	env := newAuthEnv(t, newStubRepo())

	rec := postJSON(env.router, "/auth/register", `{"email":"new@example.com","password":"long-enough"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			User struct {
				Role        string   `json:"role"`
				Permissions []string `json:"permissions"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.User.Role != "user" {
		t.Fatalf("expected starter role user, got %q", envelope.Data.User.Role)
	}
	want := []string{"CAN_VIEW_TODO", "CAN_EDIT_TODO", "CAN_ADD_TODO"}
	if len(envelope.Data.User.Permissions) != len(want) {
		t.Fatalf("expected starter permissions %v, got %v", want, envelope.Data.User.Permissions)
	}
	for i, perm := range want {
		if envelope.Data.User.Permissions[i] != perm {
			t.Fatalf("expected starter permissions %v, got %v", want, envelope.Data.User.Permissions)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubRepo()
	repo.taken = true
	env := newAuthEnv(t, repo)

	rec := postJSON(env.router, "/auth/register", `{"email":"new@example.com","password":"long-enough"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestLoginRateLimitedPerIP(t *testing.T) {
	repo := newStubRepo()
	repo.user = activeUser(t, "person@example.com", "correct-horse")
	env := newAuthEnv(t, repo)

	// httptest requests share one RemoteAddr, so they count against the
	// same per-IP bucket.
	body := `{"email":"person@example.com","password":"battery-staple"}`
	for i := 0; i < 10; i++ {
		rec := postJSON(env.router, "/auth/login", body)
		if rec.Code == http.StatusTooManyRequests {
			t.Fatalf("rate limited after %d attempts", i+1)
		}
	}

	rec := postJSON(env.router, "/auth/login", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on attempt 11, got %d", rec.Code)
	}

	// Register shares the credential limiter bucket.
	rec = postJSON(env.router, "/auth/register", `{"email":"new@example.com","password":"long-enough"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for register on the same ip, got %d", rec.Code)
	}
}

func TestLogoutRevokesCredential(t *testing.T) {
	repo := newStubRepo()
	repo.user = activeUser(t, "person@example.com", "correct-horse")
	env := newAuthEnv(t, repo)

	login := postJSON(env.router, "/auth/login", `{"email":"person@example.com","password":"correct-horse"}`)
	if login.Code != http.StatusOK {
		t.Fatalf("login failed: %d", login.Code)
	}
	cookie := login.Result().Cookies()[0]

	claims, err := env.codec.Verify(cookie.Value)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	revoked, err := env.denylist.Revoked(context.Background(), claims.TokenID)
	if err != nil {
		t.Fatalf("denylist lookup: %v", err)
	}
	if !revoked {
		t.Fatal("expected credential id to be revoked")
	}
	if _, ok := repo.sessions[claims.TokenID]; ok {
		t.Fatal("expected session metadata to be removed")
	}

	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].Value != "" || cleared[0].MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", cleared)
	}

	// The revoked credential no longer authenticates.
	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestMeReturnsPrincipal(t *testing.T) {
	repo := newStubRepo()
	repo.user = activeUser(t, "person@example.com", "correct-horse")
	env := newAuthEnv(t, repo)

	login := postJSON(env.router, "/auth/login", `{"email":"person@example.com","password":"correct-horse"}`)
	cookie := login.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Data struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Data.ID != "7" || envelope.Data.Email != "person@example.com" {
		t.Fatalf("unexpected principal payload: %+v", envelope.Data)
	}
}

func TestMeAnonymous(t *testing.T) {
	env := newAuthEnv(t, newStubRepo())

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
