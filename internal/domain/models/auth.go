package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the JWT claims structure issued by the identity provider.
type TokenClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email"`
	Role                 string `json:"rol"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *TokenClaims) GetUserID() string {
	return c.Subject
}

// AuthContext identifies the authenticated caller for every core call.
// It is built once by the auth middleware and passed explicitly instead of
// being read from ambient storage.
type AuthContext struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the caller holds the admin role.
func (a AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}
