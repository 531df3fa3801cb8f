package todos

import (
	"context"
	"time"
)

// Service handles todo business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateInput carries validated data for a new todo.
type CreateInput struct {
	Title       string
	Description string
	Priority    int
	DueDate     *time.Time
}

// UpdateInput carries validated data for a todo update. Nil fields keep the
// stored value.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *int
	DueDate     *time.Time
}

// ListTodos returns todos filtered by an optional status.
func (s *Service) ListTodos(ctx context.Context, status *Status) ([]Todo, error) {
	return s.repo.ListTodos(ctx, status)
}

// GetTodo returns a single todo.
func (s *Service) GetTodo(ctx context.Context, id int64) (*Todo, error) {
	return s.repo.GetTodo(ctx, id)
}

// CreateTodo stores a new todo. New items start pending; priority defaults
// to 3 on the 1..5 scale.
func (s *Service) CreateTodo(ctx context.Context, in CreateInput) (*Todo, error) {
	priority := in.Priority
	if priority == 0 {
		priority = 3
	}
	return s.repo.CreateTodo(ctx, Todo{
		Title:       in.Title,
		Description: in.Description,
		Status:      StatusPending,
		Priority:    priority,
		DueDate:     in.DueDate,
	})
}

// UpdateTodo applies a partial update on top of the stored todo.
func (s *Service) UpdateTodo(ctx context.Context, id int64, in UpdateInput) (*Todo, error) {
	current, err := s.repo.GetTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		current.Title = *in.Title
	}
	if in.Description != nil {
		current.Description = *in.Description
	}
	if in.Status != nil {
		current.Status = *in.Status
	}
	if in.Priority != nil {
		current.Priority = *in.Priority
	}
	if in.DueDate != nil {
		current.DueDate = in.DueDate
	}
	return s.repo.UpdateTodo(ctx, *current)
}

// DeleteTodo removes a todo.
func (s *Service) DeleteTodo(ctx context.Context, id int64) error {
	return s.repo.DeleteTodo(ctx, id)
}
