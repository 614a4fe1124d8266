package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
	"tinta/internal/policy"
)

// SubmitStep names the stage of submission that failed. The three stages
// run in a fixed order and are not atomic as a group; the step tells the
// caller what survived.
type SubmitStep string

const (
	// StepUpsert persists the final draft content. Failure leaves nothing
	// new behind.
	StepUpsert SubmitStep = "upsert"
	// StepPush flips the draft to a review snapshot. Failure leaves the
	// draft intact and editable.
	StepPush SubmitStep = "push"
	// StepRequest files the review request. Failure strands a pushed
	// snapshot with no request; retrying the submission recovers it.
	StepRequest SubmitStep = "request"
)

// SubmitError wraps a failure during submission with the step it occurred in.
type SubmitError struct {
	Step SubmitStep
	Err  error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit %s: %v", e.Step, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// StatusCode defers to the wrapped error when it carries a status.
func (e *SubmitError) StatusCode() int {
	if he, ok := e.Err.(domain.HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// SubmissionService turns finished drafts into review requests and files
// role-change requests.
type SubmissionService struct {
	drafts      *DraftService
	pendingRepo repositories.PendingArticleRepository
	requestRepo repositories.RequestRepository
	userRepo    repositories.UserRepository
	logger      *slog.Logger
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	drafts *DraftService,
	pendingRepo repositories.PendingArticleRepository,
	requestRepo repositories.RequestRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		drafts:      drafts,
		pendingRepo: pendingRepo,
		requestRepo: requestRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// validateSubmission applies the strict rules a payload must meet before
// entering review. Drafts may be partial; submissions may not.
func (s *SubmissionService) validateSubmission(p *DraftPayload) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Description, validation.Required, validation.Length(1, 500)),
		validation.Field(&p.Content, validation.Required),
		validation.Field(&p.ImageURL, is.URL),
		validation.Field(&p.TagIDs, validation.Required, validation.Length(1, 10)),
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

// Submit runs the three submission steps in order: upsert the final
// content, push the draft into an immutable snapshot, file the review
// request. The steps are deliberately not wrapped in one transaction; a
// failure is reported with its step, and re-submitting the same draft
// resumes from where it stopped. Preconditions (role, duplicate pending
// update) are checked before the first write.
func (s *SubmissionService) Submit(ctx context.Context, auth models.AuthContext, p *DraftPayload) (*models.Request, error) {
	if !policy.CanSubmit(auth) {
		return nil, &domain.ForbiddenError{Message: "role cannot submit articles for review"}
	}
	if err := s.validateSubmission(p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if p.Kind == models.KindUpdateArticle {
		hasPending, reqID, err := s.requestRepo.HasPendingUpdate(ctx, p.OriginalArticleID)
		if err != nil {
			return nil, err
		}
		if hasPending {
			return nil, &domain.ConflictError{
				Message:      "an update request for this article is already pending review",
				ResourceType: "request",
				ResourceID:   reqID,
			}
		}
	}

	// A retry of a submission that died after pushing resumes at step 3:
	// the snapshot exists with borrador=false and no request references it.
	if p.DraftID != "" {
		existing, err := s.pendingRepo.GetByID(ctx, p.DraftID)
		if err == nil && !existing.Draft && existing.AuthorID == auth.UserID {
			if orphaned, err := isOrphanedSnapshot(ctx, s.requestRepo, existing); err != nil {
				return nil, err
			} else if !orphaned {
				return nil, &domain.ConflictError{
					Message:      "this draft was already submitted for review",
					ResourceType: "pending_article",
					ResourceID:   existing.ID,
				}
			}
			s.drafts.EndAutoSaveSession(auth, p.OriginalArticleID)
			return s.fileRequest(ctx, auth, existing, p)
		}
	}

	// Step 1: persist the final content
	pa, err := s.drafts.UpsertDraft(ctx, auth, p)
	if err != nil {
		return nil, &SubmitError{Step: StepUpsert, Err: err}
	}

	// Step 2: freeze the draft into a review snapshot
	if err := s.pendingRepo.Push(ctx, pa.ID); err != nil {
		return nil, &SubmitError{Step: StepPush, Err: err}
	}
	// The draft is consumed: drop the session's saver so the author's next
	// piece binds a fresh draft instead of the pushed snapshot's id
	s.drafts.EndAutoSaveSession(auth, p.OriginalArticleID)

	return s.fileRequest(ctx, auth, pa, p)
}

// fileRequest is submission step 3.
func (s *SubmissionService) fileRequest(ctx context.Context, auth models.AuthContext, pa *models.PendingArticle, p *DraftPayload) (*models.Request, error) {
	req := &models.Request{
		AuthorID:          auth.UserID,
		Kind:              p.Kind,
		PendingArticleID:  pa.ID,
		OriginalArticleID: p.OriginalArticleID,
		State:             models.StatePending,
		CreatedAt:         time.Now(),
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, &SubmitError{Step: StepRequest, Err: err}
	}

	s.logger.Info("submission filed",
		"request_id", req.ID,
		"pending_article_id", pa.ID,
		"kind", req.Kind,
		"author_id", auth.UserID,
	)
	return req, nil
}

// isOrphanedSnapshot reports whether a pushed snapshot has no request
// referencing it, meaning an earlier submission died between push and
// request creation. A request in any state counts: resolved requests
// either consume the snapshot or revert it to a draft.
func isOrphanedSnapshot(ctx context.Context, requests repositories.RequestRepository, pa *models.PendingArticle) (bool, error) {
	_, total, err := requests.List(ctx, repositories.RequestFilter{PendingArticleID: pa.ID}, 1, 1)
	if err != nil {
		return false, err
	}
	return total == 0, nil
}

// SubmitRoleChange files a request to change the caller's own role. A user
// holds at most one pending role request at a time.
func (s *SubmissionService) SubmitRoleChange(ctx context.Context, auth models.AuthContext, desired models.Role) (*models.Request, error) {
	if !models.ValidRole(desired) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, desired)
	}

	user, err := s.userRepo.GetByID(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}
	if user.Role == desired {
		return nil, fmt.Errorf("%w: role %q is already assigned", domain.ErrValidation, desired)
	}

	hasPending, reqID, err := s.requestRepo.HasPendingRoleRequest(ctx, auth.UserID)
	if err != nil {
		return nil, err
	}
	if hasPending {
		return nil, &domain.ConflictError{
			Message:      "a role-change request is already pending review",
			ResourceType: "request",
			ResourceID:   reqID,
		}
	}

	req := &models.Request{
		AuthorID:    auth.UserID,
		Kind:        models.KindRoleChange,
		CurrentRole: user.Role,
		DesiredRole: desired,
		State:       models.StatePending,
		CreatedAt:   time.Now(),
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("role-change request filed",
		"request_id", req.ID,
		"user_id", auth.UserID,
		"current_role", user.Role,
		"desired_role", desired,
	)
	return req, nil
}
