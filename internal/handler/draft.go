package handler

import (
	"log/slog"
	"net/http"

	"tinta/internal/httputil"
	"tinta/internal/service"
)

// DraftHandler handles draft HTTP requests, including the debounced
// auto-save endpoint the editor posts to while typing.
type DraftHandler struct {
	drafts *service.DraftService
	logger *slog.Logger
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(drafts *service.DraftService, logger *slog.Logger) *DraftHandler {
	return &DraftHandler{
		drafts: drafts,
		logger: logger,
	}
}

// ListDrafts returns the caller's drafts, newest first
// GET /api/drafts
func (h *DraftHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}
	page, perPage := httputil.Pagination(r)

	drafts, total, err := h.drafts.ListDrafts(r.Context(), auth, page, perPage)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listResponse{
		Items:   drafts,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	})
}

// CreateDraft saves a draft snapshot immediately, bypassing the debounce
// POST /api/drafts
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var payload service.DraftPayload
	if err := httputil.ParseJSON(w, r, &payload); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	draft, err := h.drafts.UpsertDraft(r.Context(), auth, &payload)
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusCreated
	if payload.DraftID != "" {
		status = http.StatusOK
	}
	httputil.RespondJSON(w, status, draft)
}

// GetDraft retrieves one of the caller's drafts
// GET /api/drafts/{id}
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	draft, err := h.drafts.GetDraft(r.Context(), auth, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}

// UpdateDraft overwrites a draft's content
// PUT /api/drafts/{id}
func (h *DraftHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var payload service.DraftPayload
	if err := httputil.ParseJSON(w, r, &payload); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	payload.DraftID = r.PathValue("id")

	draft, err := h.drafts.UpsertDraft(r.Context(), auth, &payload)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, draft)
}

// DeleteDraft discards a draft
// DELETE /api/drafts/{id}
func (h *DraftHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	if err := h.drafts.DeleteDraft(r.Context(), auth, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// autoSaveResponse reports the state of the caller's auto-save session
type autoSaveResponse struct {
	Status  service.SaveStatus `json:"status"`
	DraftID string             `json:"draft_id,omitempty"`
}

// AutoSave feeds an editor snapshot into the debounced saver and returns
// immediately; the write lands after the quiet window
// POST /api/drafts/autosave
func (h *DraftHandler) AutoSave(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var payload service.DraftPayload
	if err := httputil.ParseJSON(w, r, &payload); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, draftID, err := h.drafts.AutoSave(r.Context(), auth, &payload)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusAccepted, autoSaveResponse{
		Status:  status,
		DraftID: draftID,
	})
}

// CancelAutoSave drops the caller's pending debounced save, if any
// POST /api/drafts/autosave/cancel
func (h *DraftHandler) CancelAutoSave(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r)
	if !ok {
		return
	}

	var body struct {
		OriginalArticleID string `json:"id_articulo_original"`
	}
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.drafts.CancelAutoSave(auth, body.OriginalArticleID)
	w.WriteHeader(http.StatusNoContent)
}
