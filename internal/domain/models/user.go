package models

// Role is a user's platform role. The wire values are the Spanish role
// names the platform has always used.
type Role string

const (
	RoleLector   Role = "lector"   // read-only
	RoleEscritor Role = "escritor" // may author drafts and submissions
	RoleAdmin    Role = "admin"    // may approve/reject requests
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleLector, RoleEscritor, RoleAdmin:
		return true
	}
	return false
}

// User is a platform account. Authentication lives in an external identity
// provider; this record only carries the profile and role the core needs.
type User struct {
	ID    string `json:"_id" db:"id"`
	Name  string `json:"nombre" db:"nombre"`
	Email string `json:"correo" db:"correo"`
	Role  Role   `json:"rol" db:"rol"`
}
