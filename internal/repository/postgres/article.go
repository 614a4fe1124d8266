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

// PostgresArticleRepository implements the ArticleRepository interface
type PostgresArticleRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(config *RepositoryConfig) repositories.ArticleRepository {
	return &PostgresArticleRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create publishes a new article
func (r *PostgresArticleRepository) Create(ctx context.Context, article *models.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, titulo, descripcion, contenido_markdown, imagen_url, tags, autor_id, fecha_creacion, fecha_actualizacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.tables.Articles)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		article.ID,
		article.Title,
		article.Description,
		article.Content,
		article.ImageURL,
		article.TagIDs,
		article.AuthorID,
		article.CreatedAt,
		article.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("article %s: %w", article.ID, domain.ErrConflict)
		}
		return fmt.Errorf("create article: %w", err)
	}

	return nil
}

// GetByID retrieves an article by ID
func (r *PostgresArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := fmt.Sprintf(`
		SELECT id, titulo, descripcion, contenido_markdown, imagen_url, tags, autor_id, fecha_creacion, fecha_actualizacion
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Articles)

	var article models.Article
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&article.ID,
		&article.Title,
		&article.Description,
		&article.Content,
		&article.ImageURL,
		&article.TagIDs,
		&article.AuthorID,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get article: %w", err)
	}

	return &article, nil
}

// Update overwrites an existing article's content fields
func (r *PostgresArticleRepository) Update(ctx context.Context, article *models.Article) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET titulo = $1, descripcion = $2, contenido_markdown = $3, imagen_url = $4, tags = $5, fecha_actualizacion = $6
		WHERE id = $7 AND deleted_at IS NULL
	`, r.tables.Articles)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		article.Title,
		article.Description,
		article.Content,
		article.ImageURL,
		article.TagIDs,
		article.UpdatedAt,
		article.ID,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", article.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete soft-deletes an article
func (r *PostgresArticleRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Articles)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// List returns published articles, newest first
func (r *PostgresArticleRepository) List(ctx context.Context, page, perPage int) ([]models.Article, int, error) {
	query := fmt.Sprintf(`
		SELECT id, titulo, descripcion, contenido_markdown, imagen_url, tags, autor_id, fecha_creacion, fecha_actualizacion
		FROM %s
		WHERE deleted_at IS NULL
		ORDER BY fecha_creacion DESC
		LIMIT $1 OFFSET $2
	`, r.tables.Articles)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		var article models.Article
		err := rows.Scan(
			&article.ID,
			&article.Title,
			&article.Description,
			&article.Content,
			&article.ImageURL,
			&article.TagIDs,
			&article.AuthorID,
			&article.CreatedAt,
			&article.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate articles: %w", err)
	}

	// Return empty slice instead of nil
	if articles == nil {
		articles = []models.Article{}
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE deleted_at IS NULL`, r.tables.Articles)
	var total int
	if err := executor.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	return articles, total, nil
}

// GetAuthorID returns the author id of an article
func (r *PostgresArticleRepository) GetAuthorID(ctx context.Context, id string) (string, error) {
	query := fmt.Sprintf(`
		SELECT autor_id
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Articles)

	var authorID string
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&authorID); err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
		}
		return "", fmt.Errorf("get article author: %w", err)
	}

	return authorID, nil
}
