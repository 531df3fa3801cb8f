package todos

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tasklane/tasklane/internal/authz"
	"github.com/tasklane/tasklane/internal/gate"
	"github.com/tasklane/tasklane/internal/platform/httpx"
)

// Per-operation requirements. Master role is always enough; otherwise the
// operation-specific capability unlocks it (union semantics).
var (
	requireView = authz.Requirement{
		Roles:       []authz.Role{authz.RoleMaster},
		Permissions: []authz.Permission{authz.PermViewTodo},
	}
	requireAdd = authz.Requirement{
		Roles:       []authz.Role{authz.RoleMaster},
		Permissions: []authz.Permission{authz.PermAddTodo},
	}
	requireEdit = authz.Requirement{
		Roles:       []authz.Role{authz.RoleMaster},
		Permissions: []authz.Permission{authz.PermEditTodo},
	}
	requireDelete = authz.Requirement{
		Roles:       []authz.Role{authz.RoleMaster},
		Permissions: []authz.Permission{authz.PermDeleteTodo},
	}
)

// Handler manages todo endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	authorize authz.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authorize authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		authorize: authorize,
		validator: validator.New(),
	}
}

// MountRoutes registers todo routes with their policy requirements.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.authorize.Require(requireView)).Get("/", h.listTodos)
	r.With(h.authorize.Require(requireView)).Get("/{todoID}", h.getTodo)
	r.With(h.authorize.Require(requireAdd)).Post("/", h.createTodo)
	r.With(h.authorize.Require(requireEdit)).Put("/{todoID}", h.updateTodo)
	r.With(h.authorize.Require(requireDelete)).Delete("/{todoID}", h.deleteTodo)
}

type createForm struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=1000"`
	Priority    int        `json:"priority" validate:"omitempty,min=1,max=5"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateForm struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Status      *string    `json:"status"`
	Priority    *int       `json:"priority" validate:"omitempty,min=1,max=5"`
	DueDate     *time.Time `json:"dueDate"`
}

// capabilities are non-authoritative UI hints derived through the gate; the
// route middleware stays the enforcement point.
type capabilities struct {
	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`
}

type todoView struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      string       `json:"status"`
	Priority    int          `json:"priority"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Can         capabilities `json:"can"`
}

func (h *Handler) listTodos(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := ParseStatus(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		status = &parsed
	}

	list, err := h.service.ListTodos(r.Context(), status)
	if err != nil {
		h.logger.Error("list todos", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	p := authz.PrincipalFromContext(r.Context())
	views := make([]todoView, 0, len(list))
	for i := range list {
		views = append(views, toView(&list[i], p))
	}
	httpx.OK(w, http.StatusOK, "", views)
}

func (h *Handler) getTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.todoID(w, r)
	if !ok {
		return
	}
	todo, err := h.service.GetTodo(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "", toView(todo, authz.PrincipalFromContext(r.Context())))
}

func (h *Handler) createTodo(w http.ResponseWriter, r *http.Request) {
	var form createForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	todo, err := h.service.CreateTodo(r.Context(), CreateInput{
		Title:       form.Title,
		Description: form.Description,
		Priority:    form.Priority,
		DueDate:     form.DueDate,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "todo created", toView(todo, authz.PrincipalFromContext(r.Context())))
}

func (h *Handler) updateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.todoID(w, r)
	if !ok {
		return
	}
	var form updateForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	in := UpdateInput{
		Title:       form.Title,
		Description: form.Description,
		Priority:    form.Priority,
		DueDate:     form.DueDate,
	}
	if form.Status != nil {
		status, err := ParseStatus(*form.Status)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		in.Status = &status
	}

	todo, err := h.service.UpdateTodo(r.Context(), id, in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "todo updated", toView(todo, authz.PrincipalFromContext(r.Context())))
}

func (h *Handler) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.todoID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteTodo(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, "todo deleted", nil)
}

func (h *Handler) todoID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "todoID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid todo id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "todo not found")
		return
	}
	h.logger.Error("todos handler", slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func toView(todo *Todo, p *authz.Principal) todoView {
	return todoView{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Status:      string(todo.Status),
		Priority:    todo.Priority,
		DueDate:     todo.DueDate,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
		Can: capabilities{
			CanEdit:   gate.Allowed(p, requireEdit),
			CanDelete: gate.Allowed(p, requireDelete),
		},
	}
}
