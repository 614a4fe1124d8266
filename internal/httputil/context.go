package httputil

import (
	"context"
	"net/http"

	"tinta/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const authContextKey contextKey = "authContext"

// WithAuthContext attaches the authenticated caller to the request context
func WithAuthContext(r *http.Request, auth models.AuthContext) *http.Request {
	ctx := context.WithValue(r.Context(), authContextKey, auth)
	return r.WithContext(ctx)
}

// GetAuthContext retrieves the authenticated caller from the request
// context. ok is false on unauthenticated requests.
func GetAuthContext(r *http.Request) (models.AuthContext, bool) {
	auth, ok := r.Context().Value(authContextKey).(models.AuthContext)
	return auth, ok
}
