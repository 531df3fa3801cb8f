package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasklane/tasklane/internal/authz"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	CreateUser(ctx context.Context, user User, passwordHash string) (*User, error)
	UpdateUser(ctx context.Context, user User, passwordHash string) (*User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, role, permissions, is_active, created_at, updated_at`

// ListUsers returns all users ordered by id.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// GetUser fetches a single user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new account with the given credentials.
func (r *Repository) CreateUser(ctx context.Context, user User, passwordHash string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, role, permissions, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		user.Email, passwordHash, string(user.Role), permissionStrings(user.Permissions), user.IsActive)
	created, err := scanUser(row)
	if err != nil {
		return nil, mapConflict(err)
	}
	return created, nil
}

// UpdateUser updates an account. An empty passwordHash keeps the stored one.
func (r *Repository) UpdateUser(ctx context.Context, user User, passwordHash string) (*User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET
			email = $2,
			role = $3,
			permissions = $4,
			is_active = $5,
			password_hash = COALESCE(NULLIF($6, ''), password_hash),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		user.ID, user.Email, string(user.Role), permissionStrings(user.Permissions), user.IsActive, passwordHash)
	updated, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapConflict(err)
	}
	return updated, nil
}

// DeleteUser removes an account by id.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	var role string
	var perms []string
	if err := row.Scan(&user.ID, &user.Email, &role, &perms, &user.IsActive,
		&user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	parsedRole, err := authz.ParseRole(role)
	if err != nil {
		return nil, err
	}
	parsedPerms, err := authz.ParsePermissions(perms)
	if err != nil {
		return nil, err
	}
	user.Role = parsedRole
	user.Permissions = parsedPerms
	return &user, nil
}

func permissionStrings(perms []authz.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}

func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailTaken
	}
	return err
}

var _ RepositoryPort = (*Repository)(nil)
