package models

import (
	"time"
)

// RequestKind discriminates what an approved request does. The wire values
// match the platform's original API.
type RequestKind string

const (
	KindNewArticle    RequestKind = "nuevo"  // publish a brand-new article
	KindUpdateArticle RequestKind = "update" // overwrite an existing article
	KindRoleChange    RequestKind = "rol"    // change a user's role
)

// RequestState is a request's lifecycle state. Pending is the only
// non-terminal state; once a request leaves it, it never returns.
type RequestState string

const (
	StatePending   RequestState = "pendiente"
	StateApproved  RequestState = "aprobado"
	StateRejected  RequestState = "denegado"
	StateCancelled RequestState = "cancelado"
)

// Terminal reports whether s is a final state.
func (s RequestState) Terminal() bool {
	return s == StateApproved || s == StateRejected || s == StateCancelled
}

// ValidRequestState reports whether s is a known state.
func ValidRequestState(s RequestState) bool {
	return s == StatePending || s.Terminal()
}

// Request tracks approval state for either an article change or a role
// change. Article kinds reference the pushed pending-article snapshot;
// role changes carry the current and desired role instead.
//
// PublishedArticleID is bound by the approval resolver when a new-article
// request lands, so downstream views can link to the published article. Its
// presence is also the idempotency marker for retried approvals.
type Request struct {
	ID                 string       `json:"_id" db:"id"`
	AuthorID           string       `json:"autor_id" db:"autor_id"`
	Kind               RequestKind  `json:"tipo" db:"tipo"`
	PendingArticleID   string       `json:"id_articulo_pendiente,omitempty" db:"id_articulo_pendiente"`
	OriginalArticleID  string       `json:"id_articulo_original,omitempty" db:"id_articulo_original"`
	PublishedArticleID string       `json:"id_articulo_nuevo,omitempty" db:"id_articulo_nuevo"`
	CurrentRole        Role         `json:"rol_actual,omitempty" db:"rol_actual"`
	DesiredRole        Role         `json:"rol_deseado,omitempty" db:"rol_deseado"`
	State              RequestState `json:"estado" db:"estado"`
	RejectionReason    string       `json:"motivo_rechazo,omitempty" db:"motivo_rechazo"`
	CreatedAt          time.Time    `json:"fecha" db:"fecha"`
}
