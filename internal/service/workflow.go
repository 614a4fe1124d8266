package service

import (
	"context"
	"fmt"
	"log/slog"

	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
	"tinta/internal/policy"
)

// WorkflowService drives requests through their lifecycle. Every
// transition claims the pending state with a compare-and-set before doing
// anything else, so two moderators racing on the same request resolve to
// exactly one winner. Claim and side effect run in one transaction: if the
// effect fails, the claim rolls back and the request is still pending.
type WorkflowService struct {
	requestRepo repositories.RequestRepository
	pendingRepo repositories.PendingArticleRepository
	txManager   repositories.TransactionManager
	resolver    *ApprovalResolver
	logger      *slog.Logger
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(
	requestRepo repositories.RequestRepository,
	pendingRepo repositories.PendingArticleRepository,
	txManager repositories.TransactionManager,
	resolver *ApprovalResolver,
	logger *slog.Logger,
) *WorkflowService {
	return &WorkflowService{
		requestRepo: requestRepo,
		pendingRepo: pendingRepo,
		txManager:   txManager,
		resolver:    resolver,
		logger:      logger,
	}
}

// GetRequest retrieves a request. Non-admins only see their own.
func (s *WorkflowService) GetRequest(ctx context.Context, auth models.AuthContext, id string) (*models.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.AuthorID != auth.UserID && !auth.IsAdmin() {
		return nil, &domain.ForbiddenError{Message: "request belongs to another user"}
	}
	return req, nil
}

// ListRequests returns requests matching the filter. Non-admins are
// restricted to their own requests regardless of the filter.
func (s *WorkflowService) ListRequests(ctx context.Context, auth models.AuthContext, filter repositories.RequestFilter, page, perPage int) ([]models.Request, int, error) {
	if !auth.IsAdmin() {
		filter.AuthorID = auth.UserID
	}
	return s.requestRepo.List(ctx, filter, page, perPage)
}

// PendingUpdateFor reports whether an article already has a pending
// update request, and its id when it does. Editors call this before
// opening an update draft.
func (s *WorkflowService) PendingUpdateFor(ctx context.Context, articleID string) (bool, string, error) {
	return s.requestRepo.HasPendingUpdate(ctx, articleID)
}

// Approve moves a pending request to approved and applies its effect.
func (s *WorkflowService) Approve(ctx context.Context, auth models.AuthContext, id string) (*models.Request, error) {
	if !policy.CanApprove(auth) {
		return nil, &domain.ForbiddenError{Message: "only admins can approve requests"}
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		req, err := s.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		// Claim first: losers of the race stop here with a StateError
		if err := s.requestRepo.Transition(txCtx, id, models.StateApproved, ""); err != nil {
			return err
		}

		if err := s.resolver.Apply(txCtx, req); err != nil {
			return fmt.Errorf("apply approval effect: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request approved", "request_id", id, "admin_id", auth.UserID)
	return s.requestRepo.GetByID(ctx, id)
}

// Reject moves a pending request to rejected, recording the reason. The
// pushed snapshot of an article request reverts to a draft so the author
// can revise and resubmit.
func (s *WorkflowService) Reject(ctx context.Context, auth models.AuthContext, id, reason string) (*models.Request, error) {
	if !policy.CanReject(auth) {
		return nil, &domain.ForbiddenError{Message: "only admins can reject requests"}
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		req, err := s.requestRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.requestRepo.Transition(txCtx, id, models.StateRejected, reason); err != nil {
			return err
		}
		return s.revertSnapshot(txCtx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request rejected", "request_id", id, "admin_id", auth.UserID, "reason", reason)
	return s.requestRepo.GetByID(ctx, id)
}

// Cancel withdraws a pending request. Only its author can; the snapshot
// reverts to a draft like a rejection, without a reason.
func (s *WorkflowService) Cancel(ctx context.Context, auth models.AuthContext, id string) (*models.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanCancel(auth, req) {
		return nil, &domain.ForbiddenError{Message: "only the requesting author can cancel"}
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Transition(txCtx, id, models.StateCancelled, ""); err != nil {
			return err
		}
		return s.revertSnapshot(txCtx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("request cancelled", "request_id", id, "author_id", auth.UserID)
	return s.requestRepo.GetByID(ctx, id)
}

// revertSnapshot hands an article request's pushed snapshot back to its
// author as a draft. Role requests have no snapshot.
func (s *WorkflowService) revertSnapshot(ctx context.Context, req *models.Request) error {
	if req.Kind == models.KindRoleChange {
		return nil
	}
	if err := s.pendingRepo.ToDraft(ctx, req.PendingArticleID); err != nil {
		return fmt.Errorf("revert snapshot to draft: %w", err)
	}
	return nil
}
