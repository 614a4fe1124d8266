package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
)

// PostgresRequestRepository implements the RequestRepository interface
type PostgresRequestRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(config *RepositoryConfig) repositories.RequestRepository {
	return &PostgresRequestRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

const requestColumns = `id, autor_id, tipo, id_articulo_pendiente, id_articulo_original, id_articulo_nuevo, rol_actual, rol_deseado, estado, motivo_rechazo, fecha`

func scanRequest(row interface{ Scan(dest ...any) error }) (*models.Request, error) {
	var req models.Request
	var pending, original, published, currentRole, desiredRole, reason *string
	err := row.Scan(
		&req.ID,
		&req.AuthorID,
		&req.Kind,
		&pending,
		&original,
		&published,
		&currentRole,
		&desiredRole,
		&req.State,
		&reason,
		&req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		req.PendingArticleID = *pending
	}
	if original != nil {
		req.OriginalArticleID = *original
	}
	if published != nil {
		req.PublishedArticleID = *published
	}
	if currentRole != nil {
		req.CurrentRole = models.Role(*currentRole)
	}
	if desiredRole != nil {
		req.DesiredRole = models.Role(*desiredRole)
	}
	if reason != nil {
		req.RejectionReason = *reason
	}
	return &req, nil
}

// Create inserts a new pending request
func (r *PostgresRequestRepository) Create(ctx context.Context, req *models.Request) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.State == "" {
		req.State = models.StatePending
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.tables.Requests, requestColumns)

	executor := GetExecutor(ctx, r.pool)
	_, err := executor.Exec(ctx, query,
		req.ID,
		req.AuthorID,
		req.Kind,
		nullableID(req.PendingArticleID),
		nullableID(req.OriginalArticleID),
		nullableID(req.PublishedArticleID),
		nullableID(string(req.CurrentRole)),
		nullableID(string(req.DesiredRole)),
		req.State,
		nullableID(req.RejectionReason),
		req.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("request %s: %w", req.ID, domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: request references a missing author or article", domain.ErrValidation)
		}
		return fmt.Errorf("create request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by ID
func (r *PostgresRequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, requestColumns, r.tables.Requests)

	executor := GetExecutor(ctx, r.pool)
	req, err := scanRequest(executor.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get request: %w", err)
	}

	return req, nil
}

// List returns requests matching the filter, newest first
func (r *PostgresRequestRepository) List(ctx context.Context, filter repositories.RequestFilter, page, perPage int) ([]models.Request, int, error) {
	var conditions []string
	var args []interface{}
	paramIndex := 1

	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("estado = $%d", paramIndex))
		args = append(args, filter.State)
		paramIndex++
	}
	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("tipo = $%d", paramIndex))
		args = append(args, filter.Kind)
		paramIndex++
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("autor_id = $%d", paramIndex))
		args = append(args, filter.AuthorID)
		paramIndex++
	}
	if filter.PendingArticleID != "" {
		conditions = append(conditions, fmt.Sprintf("id_articulo_pendiente = $%d", paramIndex))
		args = append(args, filter.PendingArticleID)
		paramIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY fecha DESC
		LIMIT $%d OFFSET $%d
	`, requestColumns, r.tables.Requests, whereClause, paramIndex, paramIndex+1)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, append(args, perPage, (page-1)*perPage)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate requests: %w", err)
	}

	if requests == nil {
		requests = []models.Request{}
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, r.tables.Requests, whereClause)
	var total int
	if err := executor.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	return requests, total, nil
}

// Transition moves a request from pending to a terminal state. The WHERE
// clause compares on estado='pendiente', so concurrent callers race on the
// row update and exactly one wins; the rest see zero affected rows.
func (r *PostgresRequestRepository) Transition(ctx context.Context, id string, to models.RequestState, reason string) error {
	if !to.Terminal() {
		return fmt.Errorf("%w: %s is not a terminal state", domain.ErrValidation, to)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET estado = $1, motivo_rechazo = $2
		WHERE id = $3 AND estado = $4
	`, r.tables.Requests)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, to, nullableID(reason), id, models.StatePending)
	if err != nil {
		return fmt.Errorf("transition request: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Either the request does not exist or it already left pending
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return &domain.StateError{RequestID: id, Attempted: string(to)}
	}

	return nil
}

// BindPublishedArticle records the published article id on a request
func (r *PostgresRequestRepository) BindPublishedArticle(ctx context.Context, id, articleID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET id_articulo_nuevo = $1
		WHERE id = $2
	`, r.tables.Requests)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, articleID, id)
	if err != nil {
		return fmt.Errorf("bind published article: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// HasPendingUpdate reports whether a pending update request already
// references the given original article.
func (r *PostgresRequestRepository) HasPendingUpdate(ctx context.Context, articleID string) (bool, string, error) {
	query := fmt.Sprintf(`
		SELECT id
		FROM %s
		WHERE tipo = $1 AND id_articulo_original = $2 AND estado = $3
		LIMIT 1
	`, r.tables.Requests)

	var id string
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, models.KindUpdateArticle, articleID, models.StatePending).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("check pending update: %w", err)
	}

	return true, id, nil
}

// HasPendingRoleRequest reports whether the user already has a pending
// role-change request.
func (r *PostgresRequestRepository) HasPendingRoleRequest(ctx context.Context, userID string) (bool, string, error) {
	query := fmt.Sprintf(`
		SELECT id
		FROM %s
		WHERE tipo = $1 AND autor_id = $2 AND estado = $3
		LIMIT 1
	`, r.tables.Requests)

	var id string
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, models.KindRoleChange, userID, models.StatePending).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("check pending role request: %w", err)
	}

	return true, id, nil
}
