package repositories

import (
	"context"

	"tinta/internal/domain/models"
)

// UserRepository defines data access operations for users
type UserRepository interface {
	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id string) (*models.User, error)

	// CreateIfNotExists inserts the user unless the id is already taken.
	// Used to provision accounts on first authenticated request.
	CreateIfNotExists(ctx context.Context, user *models.User) error

	// List returns all users
	List(ctx context.Context) ([]models.User, error)

	// UpdateRole sets a user's role
	UpdateRole(ctx context.Context, id string, role models.Role) error
}
