package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
	"tinta/internal/policy"
)

// DraftPayload carries one editor snapshot into the draft layer. DraftID is
// empty on the first save; the upsert fills it and later snapshots carry it.
type DraftPayload struct {
	DraftID           string             `json:"_id,omitempty"`
	Title             string             `json:"titulo"`
	Description       string             `json:"descripcion"`
	Content           string             `json:"contenido_markdown"`
	ImageURL          string             `json:"imagen_url"`
	TagIDs            []string           `json:"tags"`
	Kind              models.RequestKind `json:"tipo"`
	OriginalArticleID string             `json:"id_articulo_original,omitempty"`
}

// DraftService owns draft persistence and the per-author auto-savers.
// Drafts are private scratch space: only the owning author (or an admin,
// read-only) ever sees one.
type DraftService struct {
	pendingRepo repositories.PendingArticleRepository
	requestRepo repositories.RequestRepository
	articleRepo repositories.ArticleRepository
	logger      *slog.Logger

	saveDelay time.Duration
	saversMu  sync.Mutex
	savers    map[string]*AutoSaver
}

// NewDraftService creates a new draft service. saveDelay is the auto-save
// quiet window.
func NewDraftService(
	pendingRepo repositories.PendingArticleRepository,
	requestRepo repositories.RequestRepository,
	articleRepo repositories.ArticleRepository,
	saveDelay time.Duration,
	logger *slog.Logger,
) *DraftService {
	return &DraftService{
		pendingRepo: pendingRepo,
		requestRepo: requestRepo,
		articleRepo: articleRepo,
		logger:      logger,
		saveDelay:   saveDelay,
		savers:      make(map[string]*AutoSaver),
	}
}

// validatePayload checks the structural shape of a draft snapshot. Drafts
// may be partial (no title yet, no tags yet); only the kind discipline is
// enforced here. Submission applies the strict rules.
func (s *DraftService) validatePayload(p *DraftPayload) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Kind,
			validation.Required,
			validation.In(models.KindNewArticle, models.KindUpdateArticle),
		),
		validation.Field(&p.OriginalArticleID,
			validation.Required.When(p.Kind == models.KindUpdateArticle),
			validation.Empty.When(p.Kind == models.KindNewArticle),
		),
	)
}

// UpsertDraft persists an editor snapshot. The first save creates the draft
// record and binds its id; every later save overwrites the same record.
// For update drafts the original article is looked up first: if a draft for
// it already exists the snapshot lands there instead of forking a second
// one, and a pending update request covering the article blocks the draft
// entirely.
func (s *DraftService) UpsertDraft(ctx context.Context, auth models.AuthContext, p *DraftPayload) (*models.PendingArticle, error) {
	if !policy.CanSubmit(auth) {
		return nil, &domain.ForbiddenError{Message: "role cannot author drafts"}
	}
	if err := s.validatePayload(p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if p.DraftID != "" {
		return s.overwriteDraft(ctx, auth, p)
	}

	if p.Kind == models.KindUpdateArticle {
		return s.createUpdateDraft(ctx, auth, p)
	}

	pa := s.payloadToRecord(auth, p)
	if err := s.pendingRepo.Create(ctx, pa); err != nil {
		return nil, err
	}

	s.logger.Info("draft created", "draft_id", pa.ID, "author_id", auth.UserID, "kind", pa.Kind)
	return pa, nil
}

// overwriteDraft applies a snapshot to an existing draft after an ownership
// check. Overwriting a pushed record is refused by the repository.
func (s *DraftService) overwriteDraft(ctx context.Context, auth models.AuthContext, p *DraftPayload) (*models.PendingArticle, error) {
	existing, err := s.pendingRepo.GetByID(ctx, p.DraftID)
	if err != nil {
		return nil, err
	}
	if existing.AuthorID != auth.UserID {
		return nil, &domain.ForbiddenError{Message: "draft belongs to another author"}
	}

	pa := s.payloadToRecord(auth, p)
	pa.ID = existing.ID
	pa.CreatedAt = existing.CreatedAt
	if err := s.pendingRepo.Update(ctx, pa); err != nil {
		return nil, err
	}
	return pa, nil
}

// createUpdateDraft opens (or resumes) the single draft tracking an
// existing article.
func (s *DraftService) createUpdateDraft(ctx context.Context, auth models.AuthContext, p *DraftPayload) (*models.PendingArticle, error) {
	article, err := s.articleRepo.GetByID(ctx, p.OriginalArticleID)
	if err != nil {
		return nil, err
	}

	hasPending, reqID, err := s.requestRepo.HasPendingUpdate(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	if !policy.CanCreateUpdateDraft(auth, article, hasPending) {
		if hasPending {
			return nil, &domain.ConflictError{
				Message:      "an update request for this article is already pending review",
				ResourceType: "request",
				ResourceID:   reqID,
			}
		}
		return nil, &domain.ForbiddenError{Message: "only the author can draft changes to an article"}
	}

	// Resume the existing draft rather than forking a second one
	existing, err := s.pendingRepo.FindDraftByOriginalArticle(ctx, article.ID)
	if err == nil {
		p.DraftID = existing.ID
		return s.overwriteDraft(ctx, auth, p)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	pa := s.payloadToRecord(auth, p)
	if err := s.pendingRepo.Create(ctx, pa); err != nil {
		return nil, err
	}

	s.logger.Info("update draft created", "draft_id", pa.ID, "article_id", article.ID, "author_id", auth.UserID)
	return pa, nil
}

func (s *DraftService) payloadToRecord(auth models.AuthContext, p *DraftPayload) *models.PendingArticle {
	tags := p.TagIDs
	if tags == nil {
		tags = []string{}
	}
	return &models.PendingArticle{
		ID:                p.DraftID,
		Title:             p.Title,
		Description:       p.Description,
		Content:           p.Content,
		ImageURL:          p.ImageURL,
		TagIDs:            tags,
		AuthorID:          auth.UserID,
		Kind:              p.Kind,
		OriginalArticleID: p.OriginalArticleID,
		Draft:             true,
		CreatedAt:         time.Now(),
	}
}

// GetDraft retrieves a draft for its owner. Admins may read any draft.
func (s *DraftService) GetDraft(ctx context.Context, auth models.AuthContext, id string) (*models.PendingArticle, error) {
	pa, err := s.pendingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pa.AuthorID != auth.UserID && !auth.IsAdmin() {
		return nil, &domain.ForbiddenError{Message: "draft belongs to another author"}
	}
	return pa, nil
}

// FindDraftForArticle returns the caller's in-progress draft covering an
// article, or ErrNotFound when none exists.
func (s *DraftService) FindDraftForArticle(ctx context.Context, auth models.AuthContext, articleID string) (*models.PendingArticle, error) {
	pa, err := s.pendingRepo.FindDraftByOriginalArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if pa.AuthorID != auth.UserID && !auth.IsAdmin() {
		return nil, &domain.ForbiddenError{Message: "draft belongs to another author"}
	}
	return pa, nil
}

// DeleteDraft discards a draft. Only the owner can, and only while the
// record is still a draft; pushed snapshots are owned by their request.
func (s *DraftService) DeleteDraft(ctx context.Context, auth models.AuthContext, id string) error {
	pa, err := s.pendingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if pa.AuthorID != auth.UserID {
		return &domain.ForbiddenError{Message: "draft belongs to another author"}
	}
	if !pa.Draft {
		return &domain.ConflictError{
			Message:      "record was pushed to review and can no longer be discarded",
			ResourceType: "pending_article",
			ResourceID:   pa.ID,
		}
	}

	if err := s.pendingRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.EndAutoSaveSession(auth, pa.OriginalArticleID)
	s.logger.Info("draft discarded", "draft_id", id, "author_id", auth.UserID)
	return nil
}

// ListDrafts returns the caller's drafts, newest first.
func (s *DraftService) ListDrafts(ctx context.Context, auth models.AuthContext, page, perPage int) ([]models.PendingArticle, int, error) {
	return s.pendingRepo.ListDraftsByAuthor(ctx, auth.UserID, page, perPage)
}

// saverKey identifies one editing session: one per author and target
// article, plus one per author for a brand-new article.
func saverKey(auth models.AuthContext, originalArticleID string) string {
	return auth.UserID + "|" + originalArticleID
}

// AutoSave feeds an editor snapshot into the debounced saver for the
// caller's session, creating the saver on first use. It returns
// immediately; persistence happens after the quiet window. The returned
// status and draft id reflect the session before this snapshot lands.
func (s *DraftService) AutoSave(ctx context.Context, auth models.AuthContext, p *DraftPayload) (SaveStatus, string, error) {
	if !policy.CanSubmit(auth) {
		return "", "", &domain.ForbiddenError{Message: "role cannot author drafts"}
	}
	if err := s.validatePayload(p); err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	saver := s.saverFor(auth, p.OriginalArticleID)
	saver.Schedule(*p)
	return saver.Status(), saver.DraftID(), nil
}

// saverFor returns the session's auto-saver, creating it on first use.
func (s *DraftService) saverFor(auth models.AuthContext, originalArticleID string) *AutoSaver {
	key := saverKey(auth, originalArticleID)

	s.saversMu.Lock()
	defer s.saversMu.Unlock()

	if saver, ok := s.savers[key]; ok {
		return saver
	}

	saver := NewAutoSaver(s.saveDelay, func(p DraftPayload) (string, error) {
		// Saves outlive the HTTP request that scheduled them
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pa, err := s.UpsertDraft(ctx, auth, &p)
		if err != nil {
			s.logger.Warn("auto-save failed", "author_id", auth.UserID, "error", err)
			return "", fmt.Errorf("%w: %v", domain.ErrTransient, err)
		}
		return pa.ID, nil
	})
	s.savers[key] = saver
	return saver
}

// CancelAutoSave stops the pending save for a session, if any. The saver
// and its bound draft id survive, so typing resumes against the same draft.
func (s *DraftService) CancelAutoSave(auth models.AuthContext, originalArticleID string) {
	s.saversMu.Lock()
	saver, ok := s.savers[saverKey(auth, originalArticleID)]
	s.saversMu.Unlock()

	if ok {
		saver.Cancel()
	}
}

// EndAutoSaveSession tears the session's saver down and forgets it. Called
// when the bound draft leaves the author's hands (pushed to review or
// deleted); the next auto-save starts a fresh session and binds a fresh
// draft instead of stamping the dead id into new content.
func (s *DraftService) EndAutoSaveSession(auth models.AuthContext, originalArticleID string) {
	key := saverKey(auth, originalArticleID)

	s.saversMu.Lock()
	saver, ok := s.savers[key]
	delete(s.savers, key)
	s.saversMu.Unlock()

	if ok {
		saver.Close()
	}
}

// Close tears down every auto-saver. Called on server shutdown.
func (s *DraftService) Close() {
	s.saversMu.Lock()
	defer s.saversMu.Unlock()

	for _, saver := range s.savers {
		saver.Close()
	}
	s.savers = make(map[string]*AutoSaver)
}
