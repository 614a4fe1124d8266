package handler

import (
	"log/slog"
	"net/http"

	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
	"tinta/internal/httputil"
	"tinta/internal/service"
)

// RequestHandler handles request-workflow HTTP requests
type RequestHandler struct {
	workflow *service.WorkflowService
	logger   *slog.Logger
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(workflow *service.WorkflowService, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{
		workflow: workflow,
		logger:   logger,
	}
}

// ListRequests returns requests matching the estado/tipo query filters.
// Admins see everything; everyone else only their own.
// GET /api/requests
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}
	page, perPage := httputil.Pagination(r)

	filter := repositories.RequestFilter{
		State: models.RequestState(r.URL.Query().Get("estado")),
		Kind:  models.RequestKind(r.URL.Query().Get("tipo")),
	}
	if filter.State != "" && !models.ValidRequestState(filter.State) {
		httputil.RespondError(w, http.StatusBadRequest, "unknown estado filter")
		return
	}

	requests, total, err := h.workflow.ListRequests(r.Context(), auth, filter, page, perPage)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listResponse{
		Items:   requests,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// GetRequest retrieves one request
// GET /api/requests/{id}
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	req, err := h.workflow.GetRequest(r.Context(), auth, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, req)
}

// CheckPendingUpdate reports whether an article already has a pending
// update request
// GET /api/articles/{id}/pending-update
func (h *RequestHandler) CheckPendingUpdate(w http.ResponseWriter, r *http.Request) {
	pending, requestID, err := h.workflow.PendingUpdateFor(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, struct {
		Pending   bool   `json:"pendiente"`
		RequestID string `json:"id_solicitud,omitempty"`
	}{Pending: pending, RequestID: requestID})
}

// Approve lands a pending request and applies its effect
// POST /api/requests/{id}/approve
func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	req, err := h.workflow.Approve(r.Context(), auth, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, req)
}

// Reject refuses a pending request, recording the reason
// POST /api/requests/{id}/reject
func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"motivo_rechazo"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Reason == "" {
		httputil.RespondError(w, http.StatusBadRequest, "motivo_rechazo is required")
		return
	}

	req, err := h.workflow.Reject(r.Context(), auth, r.PathValue("id"), body.Reason)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, req)
}

// Cancel withdraws the caller's own pending request
// POST /api/requests/{id}/cancel
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	req, err := h.workflow.Cancel(r.Context(), auth, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, req)
}
