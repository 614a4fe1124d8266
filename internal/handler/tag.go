package handler

import (
	"log/slog"
	"net/http"

	"tinta/internal/httputil"
	"tinta/internal/service"
)

// TagHandler handles tag catalog HTTP requests
type TagHandler struct {
	tags   *service.TagService
	logger *slog.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(tags *service.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{
		tags:   tags,
		logger: logger,
	}
}

// ListTags returns the tag catalog
// GET /api/tags
func (h *TagHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.ListTags(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tags)
}
