package services

import (
	"context"
	"errors"
	"time"

	"github.com/projectpulse/backend/internal/models"
)

var (
	ErrUserAlreadyExists   = errors.New("username or email already registered")
	ErrInvalidCredentials  = errors.New("incorrect username or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrInvalidTaskStatus   = errors.New("invalid task status")
	ErrInvalidTaskPriority = errors.New("invalid task priority")
)

type AuthService interface {
	// Register creates a user with a freshly hashed password.
	//
	// It checks username and email with a single combined lookup
	// before inserting; a concurrent signup racing past that check
	// is caught by the unique constraint. Both cases return
	// ErrUserAlreadyExists.
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	// Login authenticates the user by username and password and
	// issues a signed access token.
	//
	// An unknown username and a password mismatch both return
	// ErrInvalidCredentials so callers cannot probe for accounts.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)
}

type UserService interface {
	// GetByUsername returns the user record for a token subject.
	//
	// It returns ErrUserNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type TaskService interface {
	// Create inserts a task owned by params.UserID. Empty status
	// and priority fall back to pending and medium.
	Create(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// List returns one page of the caller's tasks together with
	// the total count of the filtered set. Status and priority
	// filters apply conjunctively when non-empty.
	List(ctx context.Context, params ListTasksParams) ([]*models.Task, int64, error)

	// GetByID returns the task only if it is owned by userID,
	// otherwise ErrTaskNotFound.
	GetByID(ctx context.Context, id int64, userID string) (*models.Task, error)

	// Update changes only the non-nil fields. A task owned by
	// another user is reported as ErrTaskNotFound.
	Update(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// Delete removes the task if it is owned by userID, otherwise
	// returns ErrTaskNotFound.
	Delete(ctx context.Context, id int64, userID string) error
}

type RegisterParams struct {
	Username string
	Email    string
	Password string
}

type LoginParams struct {
	Username string
	Password string
}

type LoginResult struct {
	User        *models.User
	AccessToken string
	ExpiresAt   time.Time
}

type CreateTaskParams struct {
	UserID      string
	Title       string
	Description string
	Status      string
	Priority    string
}

type ListTasksParams struct {
	UserID   string
	Status   string
	Priority string
	Offset   uint32
	Limit    uint32
}

type UpdateTaskParams struct {
	ID          int64
	UserID      string
	Title       *string
	Description *string
	Status      *string
	Priority    *string
}
