// internal/repository/user_repo.go
package repository

import (
	"context"

	"remitflow-wallet/internal/domain"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// CreateUser adds a new user to the database using the provided DBExecutor.
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	// GetUserByID retrieves a user by their ID using the provided DBExecutor.
	GetUserByID(ctx context.Context, q DBExecutor, id int64) (*domain.User, error)
	// GetUserByWorkerID retrieves the user holding the given worker ID.
	GetUserByWorkerID(ctx context.Context, q DBExecutor, workerID string) (*domain.User, error)
}
