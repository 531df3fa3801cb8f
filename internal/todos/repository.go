package todos

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines data access methods for todos.
type RepositoryPort interface {
	ListTodos(ctx context.Context, status *Status) ([]Todo, error)
	GetTodo(ctx context.Context, id int64) (*Todo, error)
	CreateTodo(ctx context.Context, todo Todo) (*Todo, error)
	UpdateTodo(ctx context.Context, todo Todo) (*Todo, error)
	DeleteTodo(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const todoColumns = `id, title, description, status, priority, due_date, created_at, updated_at`

// ListTodos returns todos, optionally filtered by status, highest priority
// first and newest first within a priority.
func (r *Repository) ListTodos(ctx context.Context, status *Status) ([]Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY priority ASC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// GetTodo fetches a single todo by id.
func (r *Repository) GetTodo(ctx context.Context, id int64) (*Todo, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id)
	todo, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return todo, nil
}

// CreateTodo inserts a new todo.
func (r *Repository) CreateTodo(ctx context.Context, todo Todo) (*Todo, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO todos (title, description, status, priority, due_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+todoColumns,
		todo.Title, todo.Description, string(todo.Status), todo.Priority, todo.DueDate)
	return scanTodo(row)
}

// UpdateTodo updates an existing todo.
func (r *Repository) UpdateTodo(ctx context.Context, todo Todo) (*Todo, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE todos SET
			title = $2,
			description = $3,
			status = $4,
			priority = $5,
			due_date = $6,
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+todoColumns,
		todo.ID, todo.Title, todo.Description, string(todo.Status), todo.Priority, todo.DueDate)
	updated, err := scanTodo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// DeleteTodo removes a todo by id.
func (r *Repository) DeleteTodo(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTodo(row pgx.Row) (*Todo, error) {
	var todo Todo
	var status string
	if err := row.Scan(&todo.ID, &todo.Title, &todo.Description, &status, &todo.Priority,
		&todo.DueDate, &todo.CreatedAt, &todo.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	todo.Status = parsed
	return &todo, nil
}

var _ RepositoryPort = (*Repository)(nil)
