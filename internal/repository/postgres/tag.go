package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
)

// PostgresTagRepository implements the TagRepository interface
type PostgresTagRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(config *RepositoryConfig) repositories.TagRepository {
	return &PostgresTagRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// List returns all tags ordered by name
func (r *PostgresTagRepository) List(ctx context.Context) ([]models.Tag, error) {
	query := fmt.Sprintf(`
		SELECT id, nombre, descripcion
		FROM %s
		ORDER BY nombre ASC
	`, r.tables.Tags)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Description); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	if tags == nil {
		tags = []models.Tag{}
	}

	return tags, nil
}

// CreateIfNotExists inserts a tag unless one with the same name exists
func (r *PostgresTagRepository) CreateIfNotExists(ctx context.Context, tag *models.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, nombre, descripcion)
		VALUES ($1, $2, $3)
		ON CONFLICT (nombre) DO NOTHING
	`, r.tables.Tags)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, tag.ID, tag.Name, tag.Description); err != nil {
		return fmt.Errorf("seed tag: %w", err)
	}

	return nil
}
