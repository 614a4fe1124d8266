package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
)

// PostgresPendingArticleRepository implements the PendingArticleRepository
// interface over one table holding both drafts (borrador=true) and pushed
// submission snapshots (borrador=false).
type PostgresPendingArticleRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewPendingArticleRepository creates a new pending-article repository
func NewPendingArticleRepository(config *RepositoryConfig) repositories.PendingArticleRepository {
	return &PostgresPendingArticleRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const pendingArticleColumns = `id, titulo, descripcion, contenido_markdown, imagen_url, tags, autor_id, tipo, id_articulo_original, borrador, fecha_creacion, fecha_envio`

func scanPendingArticle(row interface{ Scan(dest ...any) error }) (*models.PendingArticle, error) {
	var pa models.PendingArticle
	var original *string
	err := row.Scan(
		&pa.ID,
		&pa.Title,
		&pa.Description,
		&pa.Content,
		&pa.ImageURL,
		&pa.TagIDs,
		&pa.AuthorID,
		&pa.Kind,
		&original,
		&pa.Draft,
		&pa.CreatedAt,
		&pa.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	if original != nil {
		pa.OriginalArticleID = *original
	}
	return &pa, nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// Create inserts a new record
func (r *PostgresPendingArticleRepository) Create(ctx context.Context, pa *models.PendingArticle) error {
	if pa.ID == "" {
		pa.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, r.tables.PendingArticles, pendingArticleColumns)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		pa.ID,
		pa.Title,
		pa.Description,
		pa.Content,
		pa.ImageURL,
		pa.TagIDs,
		pa.AuthorID,
		pa.Kind,
		nullableID(pa.OriginalArticleID),
		pa.Draft,
		pa.CreatedAt,
		pa.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("pending article %s: %w", pa.ID, domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: draft references a missing author or article", domain.ErrValidation)
		}
		return fmt.Errorf("create pending article: %w", err)
	}

	return nil
}

// GetByID retrieves a record by ID
func (r *PostgresPendingArticleRepository) GetByID(ctx context.Context, id string) (*models.PendingArticle, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, pendingArticleColumns, r.tables.PendingArticles)

	executor := GetExecutor(ctx, r.pool)
	pa, err := scanPendingArticle(executor.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("pending article %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get pending article: %w", err)
	}

	return pa, nil
}

// Update overwrites the content fields of a record. Only drafts are
// mutable; a pushed snapshot is immutable until reverted to draft.
func (r *PostgresPendingArticleRepository) Update(ctx context.Context, pa *models.PendingArticle) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET titulo = $1, descripcion = $2, contenido_markdown = $3, imagen_url = $4, tags = $5
		WHERE id = $6 AND borrador = TRUE
	`, r.tables.PendingArticles)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		pa.Title,
		pa.Description,
		pa.Content,
		pa.ImageURL,
		pa.TagIDs,
		pa.ID,
	)
	if err != nil {
		return fmt.Errorf("update pending article: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("draft %s: %w", pa.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a record
func (r *PostgresPendingArticleRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.PendingArticles)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete pending article: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pending article %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Push flips borrador=false exactly once and stamps fecha_envio. The
// compare on borrador = TRUE makes the flip single-shot: a second push
// affects zero rows.
func (r *PostgresPendingArticleRepository) Push(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET borrador = FALSE, fecha_envio = NOW()
		WHERE id = $1 AND borrador = TRUE
	`, r.tables.PendingArticles)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("push draft: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either missing or already pushed; disambiguate for the caller
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("draft %s already pushed: %w", id, domain.ErrInvalidTransition)
	}

	return nil
}

// ToDraft flips borrador back to true after a rejection or cancellation
func (r *PostgresPendingArticleRepository) ToDraft(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET borrador = TRUE
		WHERE id = $1
	`, r.tables.PendingArticles)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revert pending article to draft: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pending article %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// FindDraftByOriginalArticle returns the draft in progress for an article
func (r *PostgresPendingArticleRepository) FindDraftByOriginalArticle(ctx context.Context, articleID string) (*models.PendingArticle, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id_articulo_original = $1 AND borrador = TRUE
		ORDER BY fecha_creacion DESC
		LIMIT 1
	`, pendingArticleColumns, r.tables.PendingArticles)

	executor := GetExecutor(ctx, r.pool)
	pa, err := scanPendingArticle(executor.QueryRow(ctx, query, articleID))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("draft for article %s: %w", articleID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("find draft by article: %w", err)
	}

	return pa, nil
}

// ListDraftsByAuthor returns an author's drafts, newest first
func (r *PostgresPendingArticleRepository) ListDraftsByAuthor(ctx context.Context, authorID string, page, perPage int) ([]models.PendingArticle, int, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE autor_id = $1 AND borrador = TRUE
		ORDER BY fecha_creacion DESC
		LIMIT $2 OFFSET $3
	`, pendingArticleColumns, r.tables.PendingArticles)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, authorID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []models.PendingArticle
	for rows.Next() {
		pa, err := scanPendingArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan draft: %w", err)
		}
		drafts = append(drafts, *pa)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate drafts: %w", err)
	}

	if drafts == nil {
		drafts = []models.PendingArticle{}
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s WHERE autor_id = $1 AND borrador = TRUE
	`, r.tables.PendingArticles)
	var total int
	if err := executor.QueryRow(ctx, countQuery, authorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count drafts: %w", err)
	}

	return drafts, total, nil
}
