package todos

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates the requested todo does not exist.
var ErrNotFound = errors.New("todos: not found")

// Status is the closed set of todo states.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return Status(raw), nil
	}
	return "", fmt.Errorf("todos: unknown status %q", raw)
}

// Todo is a single task item.
type Todo struct {
	ID          int64
	Title       string
	Description string
	Status      Status
	Priority    int
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
