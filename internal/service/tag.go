package service

import (
	"context"
	"fmt"
	"log/slog"

	"tinta/internal/catalog"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
)

// TagService serves the tag catalog. The catalog is seeded from the
// embedded registry on startup and read-only afterwards.
type TagService struct {
	tagRepo  repositories.TagRepository
	registry *catalog.Registry
	logger   *slog.Logger
}

// NewTagService creates a new tag service
func NewTagService(tagRepo repositories.TagRepository, registry *catalog.Registry, logger *slog.Logger) *TagService {
	return &TagService{
		tagRepo:  tagRepo,
		registry: registry,
		logger:   logger,
	}
}

// ListTags returns all tags ordered by name.
func (s *TagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.tagRepo.List(ctx)
}

// SeedCatalog inserts the built-in tags that are not present yet. Existing
// rows are left untouched, so runtime edits to descriptions survive
// restarts.
func (s *TagService) SeedCatalog(ctx context.Context) error {
	seeded := 0
	for _, entry := range s.registry.SeedTags() {
		tag := &models.Tag{
			Name:        entry.Name,
			Description: entry.Description,
		}
		if err := s.tagRepo.CreateIfNotExists(ctx, tag); err != nil {
			return fmt.Errorf("seed tag %q: %w", entry.Name, err)
		}
		seeded++
	}

	s.logger.Info("tag catalog seeded", "entries", seeded)
	return nil
}
