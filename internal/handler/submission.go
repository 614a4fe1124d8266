package handler

import (
	"log/slog"
	"net/http"

	"tinta/internal/domain/models"
	"tinta/internal/httputil"
	"tinta/internal/service"
)

// SubmissionHandler handles submission HTTP requests
type SubmissionHandler struct {
	submissions *service.SubmissionService
	logger      *slog.Logger
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissions *service.SubmissionService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		logger:      logger,
	}
}

// Submit pushes a finished draft into review
// POST /api/submissions
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var payload service.DraftPayload
	if err := httputil.ParseJSON(w, r, &payload); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.submissions.Submit(r.Context(), auth, &payload)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, req)
}

// SubmitRoleChange files a request to change the caller's own role
// POST /api/requests/roles
func (h *SubmissionHandler) SubmitRoleChange(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var body struct {
		DesiredRole models.Role `json:"rol_deseado"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.submissions.SubmitRoleChange(r.Context(), auth, body.DesiredRole)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, req)
}
