package repositories

import (
	"context"

	"tinta/internal/domain/models"
)

// RequestFilter narrows request listings. Zero values mean "any".
type RequestFilter struct {
	State            models.RequestState
	Kind             models.RequestKind
	AuthorID         string
	PendingArticleID string
}

// RequestRepository defines data access for approval requests, both
// article and role-change kinds.
type RequestRepository interface {
	// Create inserts a new pending request and fills in its generated id
	Create(ctx context.Context, req *models.Request) error

	// GetByID retrieves a request by ID
	GetByID(ctx context.Context, id string) (*models.Request, error)

	// List returns requests matching the filter, newest first
	List(ctx context.Context, filter RequestFilter, page, perPage int) ([]models.Request, int, error)

	// Transition moves a request from pending to the given terminal state,
	// recording the rejection reason when provided. The update is
	// compare-and-set on estado='pendiente': if the request is no longer
	// pending (or was concurrently claimed) it returns a StateError and
	// changes nothing. Only the first caller to observe pending wins.
	Transition(ctx context.Context, id string, to models.RequestState, reason string) error

	// BindPublishedArticle records the published article id on an approved
	// new-article request (idempotency marker for retried approvals).
	BindPublishedArticle(ctx context.Context, id, articleID string) error

	// HasPendingUpdate reports whether a pending update request already
	// references the given original article.
	HasPendingUpdate(ctx context.Context, articleID string) (bool, string, error)

	// HasPendingRoleRequest reports whether the user already has a pending
	// role-change request.
	HasPendingRoleRequest(ctx context.Context, userID string) (bool, string, error)
}
