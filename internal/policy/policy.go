// Package policy holds the role and ownership predicates consulted before
// every mutating core action. Predicates are pure: callers fetch the
// involved records first, then ask. A false answer means the action is not
// attempted at all.
package policy

import (
	"tinta/internal/domain/models"
)

// CanEdit reports whether the user may author changes to the article:
// the user must be its author and hold a writing role.
func CanEdit(auth models.AuthContext, article *models.Article) bool {
	if article == nil {
		return false
	}
	if auth.UserID != article.AuthorID {
		return false
	}
	return auth.Role == models.RoleAdmin || auth.Role == models.RoleEscritor
}

// CanDelete reports whether the user may delete the article. Admins may
// delete anything; writers only their own.
func CanDelete(auth models.AuthContext, article *models.Article) bool {
	if article == nil {
		return false
	}
	if auth.Role == models.RoleAdmin {
		return true
	}
	return auth.Role == models.RoleEscritor && auth.UserID == article.AuthorID
}

// CanApprove reports whether the user may approve requests.
func CanApprove(auth models.AuthContext) bool {
	return auth.Role == models.RoleAdmin
}

// CanReject reports whether the user may reject requests.
func CanReject(auth models.AuthContext) bool {
	return auth.Role == models.RoleAdmin
}

// CanCancel reports whether the user may cancel the request. Only the
// owning author can; admin override covers approve/reject, never
// authorship.
func CanCancel(auth models.AuthContext, req *models.Request) bool {
	if req == nil {
		return false
	}
	return auth.UserID == req.AuthorID
}

// CanCreateUpdateDraft reports whether the user may open an update draft
// for the article: editing rights plus no pending update request already
// covering it.
func CanCreateUpdateDraft(auth models.AuthContext, article *models.Article, hasPendingUpdate bool) bool {
	if hasPendingUpdate {
		return false
	}
	return CanEdit(auth, article)
}

// CanSubmit reports whether the user may push drafts into review.
func CanSubmit(auth models.AuthContext) bool {
	return auth.Role == models.RoleAdmin || auth.Role == models.RoleEscritor
}
