package service

import (
	"context"
	"errors"
	"testing"

	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
)

type workflowFixture struct {
	svc      *WorkflowService
	pending  *memPendingRepo
	requests *memRequestRepo
	articles *memArticleRepo
	users    *memUserRepo
}

func newWorkflowFixture() *workflowFixture {
	pending := newMemPendingRepo()
	requests := newMemRequestRepo()
	articles := newMemArticleRepo()
	users := newMemUserRepo(
		models.User{ID: escritor.UserID, Name: "Ana", Role: models.RoleEscritor},
		models.User{ID: lector.UserID, Name: "Luis", Role: models.RoleLector},
	)
	tx := newMemTxManager(pending, requests, articles, users)
	resolver := NewApprovalResolver(articles, pending, requests, users, testLogger())
	svc := NewWorkflowService(requests, pending, tx, resolver, testLogger())
	return &workflowFixture{svc: svc, pending: pending, requests: requests, articles: articles, users: users}
}

// seedArticleRequest plants a pushed snapshot and its pending request.
func (f *workflowFixture) seedArticleRequest(kind models.RequestKind, originalID string) *models.Request {
	pa := models.PendingArticle{
		ID: "snap-1", Title: "Titular", Description: "Desc", Content: "Cuerpo",
		TagIDs: []string{"tag-1"}, AuthorID: escritor.UserID,
		Kind: kind, OriginalArticleID: originalID, Draft: false,
	}
	f.pending.records[pa.ID] = pa

	req := models.Request{
		ID: "req-1", AuthorID: escritor.UserID, Kind: kind,
		PendingArticleID: pa.ID, OriginalArticleID: originalID,
		State: models.StatePending,
	}
	f.requests.requests[req.ID] = req
	return &req
}

func TestApproveNewArticlePublishes(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()
	f.seedArticleRequest(models.KindNewArticle, "")

	req, err := f.svc.Approve(ctx, admin, "req-1")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if req.State != models.StateApproved {
		t.Errorf("expected aprobado, got %q", req.State)
	}
	if req.PublishedArticleID == "" {
		t.Fatal("approval must bind the published article id")
	}

	article, err := f.articles.GetByID(ctx, req.PublishedArticleID)
	if err != nil {
		t.Fatalf("published article missing: %v", err)
	}
	if article.Title != "Titular" || article.AuthorID != escritor.UserID {
		t.Errorf("published article does not carry the snapshot content: %+v", article)
	}

	// The snapshot is consumed
	if _, err := f.pending.GetByID(ctx, "snap-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("snapshot should be deleted after publication")
	}
}

func TestApproveUpdateOverwritesOriginal(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()

	f.articles.articles["art-1"] = models.Article{
		ID: "art-1", Title: "Viejo", Content: "viejo cuerpo", AuthorID: escritor.UserID,
	}
	f.seedArticleRequest(models.KindUpdateArticle, "art-1")

	req, err := f.svc.Approve(ctx, admin, "req-1")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if req.State != models.StateApproved {
		t.Errorf("expected aprobado, got %q", req.State)
	}

	article, _ := f.articles.GetByID(ctx, "art-1")
	if article.Title != "Titular" || article.Content != "Cuerpo" {
		t.Errorf("original article not overwritten: %+v", article)
	}
	if len(f.articles.articles) != 1 {
		t.Errorf("update must not create a second article, have %d", len(f.articles.articles))
	}
}

func TestApproveRoleChangeGrantsRole(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()

	f.requests.requests["req-rol"] = models.Request{
		ID: "req-rol", AuthorID: lector.UserID, Kind: models.KindRoleChange,
		CurrentRole: models.RoleLector, DesiredRole: models.RoleEscritor,
		State: models.StatePending,
	}

	if _, err := f.svc.Approve(ctx, admin, "req-rol"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	user, _ := f.users.GetByID(ctx, lector.UserID)
	if user.Role != models.RoleEscritor {
		t.Errorf("role not granted, still %q", user.Role)
	}
}

func TestTransitionsAreMonotonic(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()
	f.seedArticleRequest(models.KindNewArticle, "")

	if _, err := f.svc.Approve(ctx, admin, "req-1"); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	articlesAfterFirst := len(f.articles.articles)

	// Re-approving, rejecting or cancelling a landed request all lose
	for name, attempt := range map[string]func() error{
		"approve": func() error { _, err := f.svc.Approve(ctx, admin, "req-1"); return err },
		"reject":  func() error { _, err := f.svc.Reject(ctx, admin, "req-1", "tarde"); return err },
		"cancel":  func() error { _, err := f.svc.Cancel(ctx, escritor, "req-1"); return err },
	} {
		err := attempt()
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Errorf("%s after approval should be refused with a state error, got %v", name, err)
		}
		var stateErr *domain.StateError
		if !errors.As(err, &stateErr) {
			t.Errorf("%s should surface a StateError, got %T", name, err)
		}
	}

	// The losing attempts performed no side effect
	if len(f.articles.articles) != articlesAfterFirst {
		t.Errorf("refused transitions must not publish again: %d articles", len(f.articles.articles))
	}
	req, _ := f.requests.GetByID(ctx, "req-1")
	if req.State != models.StateApproved {
		t.Errorf("terminal state changed to %q", req.State)
	}
}

func TestApproveEffectFailureKeepsRequestPending(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()
	f.seedArticleRequest(models.KindNewArticle, "")

	f.articles.createErr = errors.New("store unavailable")

	_, err := f.svc.Approve(ctx, admin, "req-1")
	if err == nil {
		t.Fatal("approve should fail when the effect fails")
	}

	// The claimed transition rolled back with the effect
	req, _ := f.requests.GetByID(ctx, "req-1")
	if req.State != models.StatePending {
		t.Fatalf("request must stay pendiente after rollback, got %q", req.State)
	}

	// A later approval succeeds cleanly
	f.articles.createErr = nil
	fixed, err := f.svc.Approve(ctx, admin, "req-1")
	if err != nil {
		t.Fatalf("retry approve failed: %v", err)
	}
	if fixed.State != models.StateApproved || fixed.PublishedArticleID == "" {
		t.Errorf("retry did not land: %+v", fixed)
	}
}

func TestRejectRevertsSnapshotAndRecordsReason(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()
	f.seedArticleRequest(models.KindNewArticle, "")

	req, err := f.svc.Reject(ctx, admin, "req-1", "faltan fuentes")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if req.State != models.StateRejected {
		t.Errorf("expected denegado, got %q", req.State)
	}
	if req.RejectionReason != "faltan fuentes" {
		t.Errorf("reason not recorded, got %q", req.RejectionReason)
	}

	// The author can edit again
	pa, _ := f.pending.GetByID(ctx, "snap-1")
	if !pa.Draft {
		t.Error("snapshot must revert to borrador=true on rejection")
	}
	// Nothing was published
	if len(f.articles.articles) != 0 {
		t.Error("rejection must not publish")
	}
}

func TestCancelOnlyByRequestAuthor(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()
	f.seedArticleRequest(models.KindNewArticle, "")

	// Even an admin cannot cancel someone else's request
	_, err := f.svc.Cancel(ctx, admin, "req-1")
	var forbidden *domain.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden for non-author cancel, got %v", err)
	}

	req, err := f.svc.Cancel(ctx, escritor, "req-1")
	if err != nil {
		t.Fatalf("author cancel failed: %v", err)
	}
	if req.State != models.StateCancelled {
		t.Errorf("expected cancelado, got %q", req.State)
	}

	pa, _ := f.pending.GetByID(ctx, "snap-1")
	if !pa.Draft {
		t.Error("snapshot must revert to borrador=true on cancellation")
	}
}

func TestModerationRequiresAdmin(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()
	f.seedArticleRequest(models.KindNewArticle, "")

	if _, err := f.svc.Approve(ctx, escritor, "req-1"); err == nil {
		t.Error("non-admin approve should be refused")
	}
	if _, err := f.svc.Reject(ctx, escritor, "req-1", "no"); err == nil {
		t.Error("non-admin reject should be refused")
	}

	req, _ := f.requests.GetByID(ctx, "req-1")
	if req.State != models.StatePending {
		t.Errorf("refused moderation changed state to %q", req.State)
	}
}

func TestListRequestsScopesNonAdminsToOwn(t *testing.T) {
	f := newWorkflowFixture()
	ctx := context.Background()

	f.requests.requests["mine"] = models.Request{ID: "mine", AuthorID: escritor.UserID, Kind: models.KindNewArticle, State: models.StatePending}
	f.requests.requests["theirs"] = models.Request{ID: "theirs", AuthorID: lector.UserID, Kind: models.KindRoleChange, State: models.StatePending}

	own, _, err := f.svc.ListRequests(ctx, escritor, repositories.RequestFilter{}, 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(own) != 1 || own[0].ID != "mine" {
		t.Errorf("non-admin must only see own requests, got %d", len(own))
	}

	all, _, err := f.svc.ListRequests(ctx, admin, repositories.RequestFilter{}, 1, 20)
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin should see everything, got %d", len(all))
	}
}
