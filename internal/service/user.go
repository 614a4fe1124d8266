package service

import (
	"context"
	"fmt"
	"log/slog"

	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
)

// UserService serves user profiles and the admin's direct role override.
// The normal way a role changes is an approved role request; the override
// exists for bootstrap and cleanup.
type UserService struct {
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetUser retrieves a user profile. Users see themselves; admins anyone.
func (s *UserService) GetUser(ctx context.Context, auth models.AuthContext, id string) (*models.User, error) {
	if id != auth.UserID && !auth.IsAdmin() {
		return nil, &domain.ForbiddenError{Message: "cannot read another user's profile"}
	}
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns all users. Admin only.
func (s *UserService) ListUsers(ctx context.Context, auth models.AuthContext) ([]models.User, error) {
	if !auth.IsAdmin() {
		return nil, &domain.ForbiddenError{Message: "only admins can list users"}
	}
	return s.userRepo.List(ctx)
}

// SetRole directly assigns a role, bypassing the request workflow. Admin
// only.
func (s *UserService) SetRole(ctx context.Context, auth models.AuthContext, id string, role models.Role) (*models.User, error) {
	if !auth.IsAdmin() {
		return nil, &domain.ForbiddenError{Message: "only admins can assign roles"}
	}
	if !models.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}

	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, err
	}

	s.logger.Info("role assigned", "user_id", id, "role", role, "admin_id", auth.UserID)
	return s.userRepo.GetByID(ctx, id)
}
