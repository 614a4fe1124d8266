package repositories

import (
	"context"

	"tinta/internal/domain/models"
)

// TagRepository defines data access operations for the tag catalog
type TagRepository interface {
	// List returns all tags ordered by name
	List(ctx context.Context) ([]models.Tag, error)

	// CreateIfNotExists inserts a tag unless one with the same name exists
	CreateIfNotExists(ctx context.Context, tag *models.Tag) error
}
