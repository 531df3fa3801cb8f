package users

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tasklane/tasklane/internal/authz"
)

func newTestRouter(t *testing.T, p *authz.Principal) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(newMemoryRepo()), authz.Middleware{})

	r := chi.NewRouter()
	if p != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(authz.ContextWithPrincipal(req.Context(), p)))
			})
		})
	}
	r.Route("/users", handler.MountRoutes)
	return r
}

func doJSON(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUsersMasterOnly(t *testing.T) {
	// No role or permission grants short of master open the user admin module.
	admin := &authz.Principal{ID: "1", Role: authz.RoleAdmin, Permissions: authz.AllPermissions()}
	router := newTestRouter(t, admin)

	rec := doJSON(router, http.MethodGet, "/users/", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for admin, got %d", rec.Code)
	}

	rec = doJSON(newTestRouter(t, nil), http.MethodGet, "/users/", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", rec.Code)
	}
}

func TestUsersCRUD(t *testing.T) {
	master := &authz.Principal{ID: "1", Role: authz.RoleMaster}
	router := newTestRouter(t, master)

	rec := doJSON(router, http.MethodPost, "/users/", `{"email":"new@example.com","password":"long-enough","role":"admin","permissions":["CAN_VIEW_TODO"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data struct {
			ID       int64  `json:"id"`
			Role     string `json:"role"`
			IsActive bool   `json:"isActive"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if created.Data.Role != "admin" || !created.Data.IsActive {
		t.Fatalf("unexpected created user: %+v", created.Data)
	}

	rec = doJSON(router, http.MethodPut, "/users/1", `{"email":"new@example.com","role":"user","isActive":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(router, http.MethodDelete, "/users/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(router, http.MethodGet, "/users/1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestUsersCreateValidation(t *testing.T) {
	master := &authz.Principal{ID: "1", Role: authz.RoleMaster}
	router := newTestRouter(t, master)

	for _, body := range []string{
		`{"email":"no-password@example.com","role":"user"}`,
		`{"email":"bad-email","password":"long-enough","role":"user"}`,
		`{"email":"svc@example.com","password":"long-enough","role":"service"}`,
		`{"email":"x@example.com","password":"long-enough","role":"owner"}`,
	} {
		rec := doJSON(router, http.MethodPost, "/users/", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

type brokenRepo struct{}

func (brokenRepo) ListUsers(ctx context.Context) ([]User, error) {
	return nil, errors.New("connection reset by peer")
}

func (brokenRepo) GetUser(ctx context.Context, id int64) (*User, error) {
	return nil, errors.New("connection reset by peer")
}

func (brokenRepo) CreateUser(ctx context.Context, user User, passwordHash string) (*User, error) {
	return nil, errors.New("connection reset by peer")
}

func (brokenRepo) UpdateUser(ctx context.Context, user User, passwordHash string) (*User, error) {
	return nil, errors.New("connection reset by peer")
}

func (brokenRepo) DeleteUser(ctx context.Context, id int64) error {
	return errors.New("connection reset by peer")
}

// Unexpected repository failures map to a detail-free 500, never to a 400
// that echoes internal error text.
func TestUsersRepositoryFailureIs500(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(brokenRepo{}), authz.Middleware{})

	master := &authz.Principal{ID: "1", Role: authz.RoleMaster}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(authz.ContextWithPrincipal(req.Context(), master)))
		})
	})
	r.Route("/users", handler.MountRoutes)

	rec := doJSON(r, http.MethodGet, "/users/1", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("internal error text leaked: %s", rec.Body.String())
	}

	rec = doJSON(r, http.MethodPost, "/users/", `{"email":"x@example.com","password":"long-enough","role":"user"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on create, got %d", rec.Code)
	}
}

func TestUsersDuplicateEmail(t *testing.T) {
	master := &authz.Principal{ID: "1", Role: authz.RoleMaster}
	router := newTestRouter(t, master)

	body := `{"email":"dup@example.com","password":"long-enough","role":"user"}`
	if rec := doJSON(router, http.MethodPost, "/users/", body); rec.Code != http.StatusCreated {
		t.Fatalf("seed create failed: %d", rec.Code)
	}
	rec := doJSON(router, http.MethodPost, "/users/", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}
