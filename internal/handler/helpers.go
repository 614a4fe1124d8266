package handler

import (
	"errors"
	"net/http"

	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/httputil"
	"tinta/internal/service"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var (
		stateErr    *domain.StateError
		conflictErr *domain.ConflictError
		submitErr   *service.SubmitError
		httpErr     domain.HTTPError
	)

	switch {
	case errors.As(err, &stateErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, stateErr.Error(), map[string]interface{}{
			"request_id": stateErr.RequestID,
			"attempted":  stateErr.Attempted,
		})
	case errors.As(err, &conflictErr):
		extras := map[string]interface{}{}
		if conflictErr.ResourceID != "" {
			extras["resource_type"] = conflictErr.ResourceType
			extras["resource_id"] = conflictErr.ResourceID
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	case errors.As(err, &submitErr):
		httputil.RespondErrorWithExtras(w, submitErr.StatusCode(), submitErr.Error(), map[string]interface{}{
			"step": string(submitErr.Step),
		})
	case errors.As(err, &httpErr):
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireAuth extracts the caller from the request context. Writes a 401
// and returns false when the request is unauthenticated.
func requireAuth(w http.ResponseWriter, r *http.Request) (models.AuthContext, bool) {
	auth, ok := httputil.GetAuthContext(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return models.AuthContext{}, false
	}
	return auth, true
}

// listResponse is the envelope for paginated collections
type listResponse struct {
	Items   interface{} `json:"items"`
	Total   int         `json:"total"`
	Page    int         `json:"page"`
	PerPage int         `json:"per_page"`
}
