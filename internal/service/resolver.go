package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
)

// ApprovalResolver applies the effect of an approved request. Each kind
// has one effect, and every effect is idempotent: re-applying an already
// landed approval changes nothing.
type ApprovalResolver struct {
	articleRepo repositories.ArticleRepository
	pendingRepo repositories.PendingArticleRepository
	requestRepo repositories.RequestRepository
	userRepo    repositories.UserRepository
	logger      *slog.Logger
}

// NewApprovalResolver creates a new approval resolver
func NewApprovalResolver(
	articleRepo repositories.ArticleRepository,
	pendingRepo repositories.PendingArticleRepository,
	requestRepo repositories.RequestRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) *ApprovalResolver {
	return &ApprovalResolver{
		articleRepo: articleRepo,
		pendingRepo: pendingRepo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// Apply dispatches on the request kind. Callers run it inside the same
// transaction as the state transition.
func (r *ApprovalResolver) Apply(ctx context.Context, req *models.Request) error {
	switch req.Kind {
	case models.KindNewArticle:
		return r.publishNew(ctx, req)
	case models.KindUpdateArticle:
		return r.publishUpdate(ctx, req)
	case models.KindRoleChange:
		return r.applyRoleChange(ctx, req)
	default:
		return fmt.Errorf("%w: unknown request kind %q", domain.ErrValidation, req.Kind)
	}
}

// publishNew turns the pushed snapshot into a published article, binds the
// new article id on the request and consumes the snapshot. A request that
// already carries a published article id was applied before.
func (r *ApprovalResolver) publishNew(ctx context.Context, req *models.Request) error {
	if req.PublishedArticleID != "" {
		r.logger.Debug("approval already applied", "request_id", req.ID, "article_id", req.PublishedArticleID)
		return nil
	}

	pa, err := r.pendingRepo.GetByID(ctx, req.PendingArticleID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	now := time.Now()
	article := &models.Article{
		Title:       pa.Title,
		Description: pa.Description,
		Content:     pa.Content,
		ImageURL:    pa.ImageURL,
		TagIDs:      pa.TagIDs,
		AuthorID:    pa.AuthorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.articleRepo.Create(ctx, article); err != nil {
		return fmt.Errorf("publish article: %w", err)
	}

	if err := r.requestRepo.BindPublishedArticle(ctx, req.ID, article.ID); err != nil {
		return fmt.Errorf("bind published article: %w", err)
	}

	if err := r.pendingRepo.Delete(ctx, pa.ID); err != nil {
		return fmt.Errorf("consume snapshot: %w", err)
	}

	r.logger.Info("article published", "article_id", article.ID, "request_id", req.ID, "author_id", pa.AuthorID)
	return nil
}

// publishUpdate overwrites the original article with the snapshot content
// and consumes the snapshot. If the snapshot is already gone a previous
// application consumed it.
func (r *ApprovalResolver) publishUpdate(ctx context.Context, req *models.Request) error {
	pa, err := r.pendingRepo.GetByID(ctx, req.PendingArticleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.logger.Debug("approval already applied", "request_id", req.ID, "article_id", req.OriginalArticleID)
			return nil
		}
		return fmt.Errorf("load snapshot: %w", err)
	}

	article, err := r.articleRepo.GetByID(ctx, req.OriginalArticleID)
	if err != nil {
		return fmt.Errorf("load original article: %w", err)
	}

	article.Title = pa.Title
	article.Description = pa.Description
	article.Content = pa.Content
	article.ImageURL = pa.ImageURL
	article.TagIDs = pa.TagIDs
	article.UpdatedAt = time.Now()

	if err := r.articleRepo.Update(ctx, article); err != nil {
		return fmt.Errorf("apply article update: %w", err)
	}

	if err := r.pendingRepo.Delete(ctx, pa.ID); err != nil {
		return fmt.Errorf("consume snapshot: %w", err)
	}

	r.logger.Info("article updated", "article_id", article.ID, "request_id", req.ID)
	return nil
}

// applyRoleChange grants the desired role. Setting a role the user already
// holds is a no-op, which makes re-application harmless.
func (r *ApprovalResolver) applyRoleChange(ctx context.Context, req *models.Request) error {
	if !models.ValidRole(req.DesiredRole) {
		return fmt.Errorf("%w: unknown role %q", domain.ErrValidation, req.DesiredRole)
	}
	if err := r.userRepo.UpdateRole(ctx, req.AuthorID, req.DesiredRole); err != nil {
		return fmt.Errorf("apply role change: %w", err)
	}

	r.logger.Info("role granted", "user_id", req.AuthorID, "role", req.DesiredRole, "request_id", req.ID)
	return nil
}
