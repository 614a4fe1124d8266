package repositories

import (
	"context"

	"tinta/internal/domain/models"
)

// PendingArticleRepository defines data access for drafts and pushed
// submission snapshots (one table, discriminated by the borrador flag).
type PendingArticleRepository interface {
	// Create inserts a new record and fills in its generated id
	Create(ctx context.Context, pa *models.PendingArticle) error

	// GetByID retrieves a record by ID
	GetByID(ctx context.Context, id string) (*models.PendingArticle, error)

	// Update overwrites the content fields of a record
	Update(ctx context.Context, pa *models.PendingArticle) error

	// Delete removes a record (the consumed snapshot after approval)
	Delete(ctx context.Context, id string) error

	// Push flips borrador=false exactly once and stamps fecha_envio.
	// Returns ErrInvalidTransition if the record was already pushed.
	Push(ctx context.Context, id string) error

	// ToDraft flips borrador back to true so the author can resume editing
	ToDraft(ctx context.Context, id string) error

	// FindDraftByOriginalArticle returns the draft in progress for an
	// article, or ErrNotFound if no draft references it.
	FindDraftByOriginalArticle(ctx context.Context, articleID string) (*models.PendingArticle, error)

	// ListDraftsByAuthor returns an author's drafts, newest first
	ListDraftsByAuthor(ctx context.Context, authorID string, page, perPage int) ([]models.PendingArticle, int, error)
}
