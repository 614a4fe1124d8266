package repositories

import (
	"context"

	"tinta/internal/domain/models"
)

// ArticleRepository defines data access operations for published articles
type ArticleRepository interface {
	// Create publishes a new article and fills in its generated id
	Create(ctx context.Context, article *models.Article) error

	// GetByID retrieves an article by ID
	GetByID(ctx context.Context, id string) (*models.Article, error)

	// Update overwrites an existing article's content fields
	Update(ctx context.Context, article *models.Article) error

	// Delete soft-deletes an article
	Delete(ctx context.Context, id string) error

	// List returns published articles, newest first
	List(ctx context.Context, page, perPage int) ([]models.Article, int, error)

	// GetAuthorID returns the author id of an article
	GetAuthorID(ctx context.Context, id string) (string, error)
}
