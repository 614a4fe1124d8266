package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tinta/internal/auth"
	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
	"tinta/internal/httputil"
)

// publicRoute reports whether the request needs no authentication. The
// published catalog and health probe are world-readable.
func publicRoute(r *http.Request) bool {
	if r.Method == http.MethodOptions {
		return true
	}
	if r.URL.Path == "/health" {
		return true
	}
	if r.Method != http.MethodGet {
		return false
	}
	return r.URL.Path == "/api/articles" ||
		strings.HasPrefix(r.URL.Path, "/api/articles/") ||
		r.URL.Path == "/api/tags"
}

// AuthMiddleware verifies the Bearer token and attaches the caller's
// AuthContext. The database holds the authoritative role: tokens only
// prove identity, so a role granted since the token was issued takes
// effect immediately. Unknown subjects are provisioned as readers on
// first sight.
func AuthMiddleware(verifier auth.JWTVerifier, users repositories.UserRepository, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")

			if publicRoute(r) {
				// Best effort: attach the caller when a valid token is
				// sent, continue anonymously otherwise. Authenticated
				// sub-routes under public prefixes rely on this.
				if ok && tokenString != "" {
					if claims, err := verifier.VerifyToken(tokenString); err == nil {
						if auth, err := resolveCaller(r, users, claims); err == nil {
							r = httputil.WithAuthContext(r, auth)
						}
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			if !ok || tokenString == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(tokenString)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			auth, err := resolveCaller(r, users, claims)
			if err != nil {
				logger.Error("caller resolution failed", "user_id", claims.Subject, "error", err)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			next.ServeHTTP(w, httputil.WithAuthContext(r, auth))
		})
	}
}

// resolveCaller loads the caller's current role, provisioning a reader
// account on first sight.
func resolveCaller(r *http.Request, users repositories.UserRepository, claims *models.TokenClaims) (models.AuthContext, error) {
	ctx := r.Context()

	user, err := users.GetByID(ctx, claims.Subject)
	if err == nil {
		return models.AuthContext{UserID: user.ID, Role: user.Role}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return models.AuthContext{}, err
	}

	fresh := &models.User{
		ID:    claims.Subject,
		Name:  claims.Email,
		Email: claims.Email,
		Role:  models.RoleLector,
	}
	if err := users.CreateIfNotExists(ctx, fresh); err != nil {
		return models.AuthContext{}, err
	}

	// Re-read in case a concurrent first request won the insert
	user, err = users.GetByID(ctx, claims.Subject)
	if err != nil {
		return models.AuthContext{}, err
	}
	return models.AuthContext{UserID: user.ID, Role: user.Role}, nil
}
