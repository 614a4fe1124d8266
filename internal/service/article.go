package service

import (
	"context"
	"log/slog"

	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
	"tinta/internal/policy"
)

// ArticleService serves the published catalog. Articles are world-readable;
// the only direct mutation is deletion, everything else lands through the
// request workflow.
type ArticleService struct {
	articleRepo repositories.ArticleRepository
	userRepo    repositories.UserRepository
	logger      *slog.Logger
}

// NewArticleService creates a new article service
func NewArticleService(articleRepo repositories.ArticleRepository, userRepo repositories.UserRepository, logger *slog.Logger) *ArticleService {
	return &ArticleService{
		articleRepo: articleRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// GetArticle retrieves a published article.
func (s *ArticleService) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	return s.articleRepo.GetByID(ctx, id)
}

// ListArticles returns published articles, newest first.
func (s *ArticleService) ListArticles(ctx context.Context, page, perPage int) ([]models.Article, int, error) {
	return s.articleRepo.List(ctx, page, perPage)
}

// GetArticleAuthor returns the author of a published article.
func (s *ArticleService) GetArticleAuthor(ctx context.Context, id string) (*models.User, error) {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, article.AuthorID)
}

// DeleteArticle removes an article. Admins may delete any; writers only
// their own.
func (s *ArticleService) DeleteArticle(ctx context.Context, auth models.AuthContext, id string) error {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDelete(auth, article) {
		return &domain.ForbiddenError{Message: "cannot delete an article authored by someone else"}
	}

	if err := s.articleRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("article deleted", "article_id", id, "deleted_by", auth.UserID)
	return nil
}
