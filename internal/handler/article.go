package handler

import (
	"log/slog"
	"net/http"

	"tinta/internal/httputil"
	"tinta/internal/service"
)

// ArticleHandler handles published-article HTTP requests
type ArticleHandler struct {
	articles *service.ArticleService
	drafts   *service.DraftService
	logger   *slog.Logger
}

// NewArticleHandler creates a new article handler
func NewArticleHandler(articles *service.ArticleService, drafts *service.DraftService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{
		articles: articles,
		drafts:   drafts,
		logger:   logger,
	}
}

// ListArticles returns published articles, newest first
// GET /api/articles
func (h *ArticleHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page, perPage := httputil.Pagination(r)

	articles, total, err := h.articles.ListArticles(r.Context(), page, perPage)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listResponse{
		Items:   articles,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// GetArticle retrieves one published article
// GET /api/articles/{id}
func (h *ArticleHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.articles.GetArticle(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, article)
}

// DeleteArticle removes a published article
// DELETE /api/articles/{id}
func (h *ArticleHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	if err := h.articles.DeleteArticle(r.Context(), auth, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetArticleAuthor returns the public profile of an article's author
// GET /api/articles/{id}/author
func (h *ArticleHandler) GetArticleAuthor(w http.ResponseWriter, r *http.Request) {
	author, err := h.articles.GetArticleAuthor(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	// Public route: expose name only, not email or role
	httputil.RespondJSON(w, http.StatusOK, struct {
		ID   string `json:"_id"`
		Name string `json:"nombre"`
	}{ID: author.ID, Name: author.Name})
}

// GetArticleDraft returns the caller's in-progress update draft for an
// article, or 404 when none exists
// GET /api/articles/{id}/draft
func (h *ArticleHandler) GetArticleDraft(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	draft, err := h.drafts.FindDraftForArticle(r.Context(), auth, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}
