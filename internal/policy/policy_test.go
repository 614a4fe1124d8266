package policy

import (
	"testing"

	"tinta/internal/domain/models"
)

var (
	adminAuth    = models.AuthContext{UserID: "u-admin", Role: models.RoleAdmin}
	escritorAuth = models.AuthContext{UserID: "u-escritor", Role: models.RoleEscritor}
	lectorAuth   = models.AuthContext{UserID: "u-lector", Role: models.RoleLector}
)

func TestCanEdit(t *testing.T) {
	own := &models.Article{ID: "a1", AuthorID: escritorAuth.UserID}
	foreign := &models.Article{ID: "a2", AuthorID: "someone-else"}
	ownByLector := &models.Article{ID: "a3", AuthorID: lectorAuth.UserID}

	tests := []struct {
		name    string
		auth    models.AuthContext
		article *models.Article
		want    bool
	}{
		{"writer edits own article", escritorAuth, own, true},
		{"writer cannot edit foreign article", escritorAuth, foreign, false},
		{"admin cannot edit foreign article", adminAuth, foreign, false},
		{"reader cannot edit even own article", lectorAuth, ownByLector, false},
		{"nil article", escritorAuth, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEdit(tt.auth, tt.article); got != tt.want {
				t.Errorf("CanEdit = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanDelete(t *testing.T) {
	own := &models.Article{ID: "a1", AuthorID: escritorAuth.UserID}
	foreign := &models.Article{ID: "a2", AuthorID: "someone-else"}

	tests := []struct {
		name    string
		auth    models.AuthContext
		article *models.Article
		want    bool
	}{
		{"admin deletes anything", adminAuth, foreign, true},
		{"writer deletes own", escritorAuth, own, true},
		{"writer cannot delete foreign", escritorAuth, foreign, false},
		{"reader cannot delete", lectorAuth, own, false},
		{"nil article", adminAuth, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanDelete(tt.auth, tt.article); got != tt.want {
				t.Errorf("CanDelete = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModerationPredicates(t *testing.T) {
	if !CanApprove(adminAuth) || !CanReject(adminAuth) {
		t.Error("admin must be able to approve and reject")
	}
	for _, auth := range []models.AuthContext{escritorAuth, lectorAuth} {
		if CanApprove(auth) || CanReject(auth) {
			t.Errorf("role %q must not moderate", auth.Role)
		}
	}
}

func TestCanCancel(t *testing.T) {
	req := &models.Request{ID: "r1", AuthorID: escritorAuth.UserID}

	tests := []struct {
		name string
		auth models.AuthContext
		req  *models.Request
		want bool
	}{
		{"author cancels own request", escritorAuth, req, true},
		{"admin cannot cancel foreign request", adminAuth, req, false},
		{"other user cannot cancel", lectorAuth, req, false},
		{"nil request", escritorAuth, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCancel(tt.auth, tt.req); got != tt.want {
				t.Errorf("CanCancel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanCreateUpdateDraft(t *testing.T) {
	own := &models.Article{ID: "a1", AuthorID: escritorAuth.UserID}

	if !CanCreateUpdateDraft(escritorAuth, own, false) {
		t.Error("author without pending update must be allowed")
	}
	if CanCreateUpdateDraft(escritorAuth, own, true) {
		t.Error("pending update request must block a new draft")
	}
	if CanCreateUpdateDraft(lectorAuth, own, false) {
		t.Error("reader must not open update drafts")
	}
}

func TestCanSubmit(t *testing.T) {
	if !CanSubmit(adminAuth) || !CanSubmit(escritorAuth) {
		t.Error("writing roles must be able to submit")
	}
	if CanSubmit(lectorAuth) {
		t.Error("readers must not submit")
	}
}
