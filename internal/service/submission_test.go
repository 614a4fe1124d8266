package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tinta/internal/domain"
	"tinta/internal/domain/models"
)

func newSubmissionFixture() (*SubmissionService, *memPendingRepo, *memRequestRepo, *memArticleRepo, *memUserRepo) {
	pending := newMemPendingRepo()
	requests := newMemRequestRepo()
	articles := newMemArticleRepo()
	users := newMemUserRepo(
		models.User{ID: escritor.UserID, Name: "Ana", Role: models.RoleEscritor},
		models.User{ID: lector.UserID, Name: "Luis", Role: models.RoleLector},
	)
	drafts := NewDraftService(pending, requests, articles, 10*time.Millisecond, testLogger())
	svc := NewSubmissionService(drafts, pending, requests, users, testLogger())
	return svc, pending, requests, articles, users
}

func completePayload() *DraftPayload {
	return &DraftPayload{
		Title:       "Crónica de prueba",
		Description: "Una descripción completa",
		Content:     "# Contenido\n\nTexto del artículo.",
		ImageURL:    "https://example.com/portada.png",
		TagIDs:      []string{"tag-1"},
		Kind:        models.KindNewArticle,
	}
}

func TestSubmitRunsAllThreeSteps(t *testing.T) {
	svc, pending, requests, _, _ := newSubmissionFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, escritor, completePayload())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Step 1+2: the snapshot exists and is no longer a draft
	pa, err := pending.GetByID(ctx, req.PendingArticleID)
	if err != nil {
		t.Fatalf("snapshot missing after submit: %v", err)
	}
	if pa.Draft {
		t.Error("snapshot must have borrador=false after push")
	}

	// Step 3: the request is pending and references the snapshot
	if req.State != models.StatePending {
		t.Errorf("new request must be pending, got %q", req.State)
	}
	if req.Kind != models.KindNewArticle {
		t.Errorf("wrong kind %q", req.Kind)
	}
	if len(requests.requests) != 1 {
		t.Errorf("expected one request, have %d", len(requests.requests))
	}
}

func TestSubmitValidatesStrictly(t *testing.T) {
	svc, pending, requests, _, _ := newSubmissionFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*DraftPayload)
	}{
		{"missing title", func(p *DraftPayload) { p.Title = "" }},
		{"missing description", func(p *DraftPayload) { p.Description = "" }},
		{"missing content", func(p *DraftPayload) { p.Content = "" }},
		{"no tags", func(p *DraftPayload) { p.TagIDs = nil }},
		{"bad image url", func(p *DraftPayload) { p.ImageURL = "::not-a-url" }},
		{"update without original", func(p *DraftPayload) { p.Kind = models.KindUpdateArticle }},
		{"unknown kind", func(p *DraftPayload) { p.Kind = "publicar" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := completePayload()
			tt.mutate(p)

			_, err := svc.Submit(ctx, escritor, p)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	// Failed validation happens before any write
	if len(pending.records) != 0 || len(requests.requests) != 0 {
		t.Error("validation failures must not persist anything")
	}
}

func TestSubmitRejectsReaders(t *testing.T) {
	svc, _, _, _, _ := newSubmissionFixture()

	_, err := svc.Submit(context.Background(), lector, completePayload())
	var forbidden *domain.ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected forbidden for reader, got %v", err)
	}
}

func TestSubmitDuplicatePendingUpdateRefused(t *testing.T) {
	svc, _, requests, articles, _ := newSubmissionFixture()
	ctx := context.Background()

	articles.articles["art-1"] = models.Article{ID: "art-1", AuthorID: escritor.UserID}
	requests.requests["req-1"] = models.Request{
		ID: "req-1", Kind: models.KindUpdateArticle, State: models.StatePending,
		OriginalArticleID: "art-1", AuthorID: escritor.UserID,
	}

	p := completePayload()
	p.Kind = models.KindUpdateArticle
	p.OriginalArticleID = "art-1"

	_, err := svc.Submit(ctx, escritor, p)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if conflict.ResourceID != "req-1" {
		t.Errorf("conflict must point at the pending request, got %q", conflict.ResourceID)
	}
}

func TestSubmitFailureIsTaggedWithStepAndRetryResumes(t *testing.T) {
	svc, pending, requests, _, _ := newSubmissionFixture()
	ctx := context.Background()

	requests.createErr = errors.New("store unavailable")

	p := completePayload()
	_, err := svc.Submit(ctx, escritor, p)

	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if submitErr.Step != StepRequest {
		t.Fatalf("expected failure in step %q, got %q", StepRequest, submitErr.Step)
	}

	// The snapshot survived steps 1 and 2
	if len(pending.records) != 1 {
		t.Fatalf("expected the pushed snapshot to remain, have %d records", len(pending.records))
	}
	var snapshotID string
	for id, pa := range pending.records {
		snapshotID = id
		if pa.Draft {
			t.Error("snapshot should be pushed (borrador=false)")
		}
	}

	// Retrying with the bound draft id resumes at step 3
	p.DraftID = snapshotID
	req, err := svc.Submit(ctx, escritor, p)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if req.PendingArticleID != snapshotID {
		t.Errorf("retry must reuse the stranded snapshot, got %q", req.PendingArticleID)
	}

	// A second retry is a duplicate, not a new request
	_, err = svc.Submit(ctx, escritor, p)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict on duplicate submit, got %v", err)
	}
	if len(requests.requests) != 1 {
		t.Errorf("expected exactly one request, have %d", len(requests.requests))
	}
}

func TestSubmitEndsAutoSaveSessionForNextArticle(t *testing.T) {
	svc, pending, _, _, _ := newSubmissionFixture()
	defer svc.drafts.Close()
	ctx := context.Background()

	// Write the first piece through auto-save
	if _, _, err := svc.drafts.AutoSave(ctx, escritor, &DraftPayload{
		Title: "pieza uno", Kind: models.KindNewArticle,
	}); err != nil {
		t.Fatalf("auto-save schedule failed: %v", err)
	}
	first := waitForRecord(t, pending, func(pa models.PendingArticle) bool { return pa.Title == "pieza uno" })

	p := completePayload()
	p.DraftID = first.ID
	req, err := svc.Submit(ctx, escritor, p)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// Start a brand-new piece in the same session: the submission consumed
	// the first draft, so this save must bind a fresh one
	if _, _, err := svc.drafts.AutoSave(ctx, escritor, &DraftPayload{
		Title: "pieza dos", Kind: models.KindNewArticle,
	}); err != nil {
		t.Fatalf("auto-save after submit failed: %v", err)
	}
	second := waitForRecord(t, pending, func(pa models.PendingArticle) bool { return pa.Title == "pieza dos" })

	if second.ID == req.PendingArticleID {
		t.Fatal("auto-save wrote the new piece into the submitted snapshot")
	}
	if !second.Draft {
		t.Error("new piece must be a draft")
	}

	// The pushed snapshot kept the submitted content
	snap, err := pending.GetByID(ctx, req.PendingArticleID)
	if err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
	if snap.Draft || snap.Title != p.Title {
		t.Errorf("snapshot was disturbed: draft=%v title=%q", snap.Draft, snap.Title)
	}
}

func TestSubmitRetryDetectsExistingRequestAmongMany(t *testing.T) {
	svc, pending, requests, _, _ := newSubmissionFixture()
	ctx := context.Background()

	pending.records["snap-1"] = models.PendingArticle{
		ID: "snap-1", Title: "ya enviada", AuthorID: escritor.UserID,
		Kind: models.KindNewArticle, Draft: false,
	}
	requests.requests["req-ref"] = models.Request{
		ID: "req-ref", Kind: models.KindNewArticle, State: models.StatePending,
		AuthorID: escritor.UserID, PendingArticleID: "snap-1",
	}
	// Pile on unrelated pending requests so the referencing one is not
	// findable by scanning a single listing page
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("req-noise-%d", i)
		requests.requests[id] = models.Request{
			ID: id, Kind: models.KindNewArticle, State: models.StatePending,
			AuthorID: escritor.UserID, PendingArticleID: fmt.Sprintf("snap-noise-%d", i),
		}
	}

	p := completePayload()
	p.DraftID = "snap-1"
	_, err := svc.Submit(ctx, escritor, p)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict for an already-submitted snapshot, got %v", err)
	}
	if len(requests.requests) != 151 {
		t.Errorf("a duplicate request was filed: have %d", len(requests.requests))
	}
}

func TestSubmitRoleChange(t *testing.T) {
	svc, _, requests, _, _ := newSubmissionFixture()
	ctx := context.Background()

	req, err := svc.SubmitRoleChange(ctx, lector, models.RoleEscritor)
	if err != nil {
		t.Fatalf("role request failed: %v", err)
	}
	if req.Kind != models.KindRoleChange {
		t.Errorf("wrong kind %q", req.Kind)
	}
	if req.CurrentRole != models.RoleLector || req.DesiredRole != models.RoleEscritor {
		t.Errorf("roles not captured: current %q desired %q", req.CurrentRole, req.DesiredRole)
	}

	// Only one pending role request per user
	_, err = svc.SubmitRoleChange(ctx, lector, models.RoleAdmin)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict on second role request, got %v", err)
	}
	if len(requests.requests) != 1 {
		t.Errorf("expected one request, have %d", len(requests.requests))
	}
}

func TestSubmitRoleChangeValidation(t *testing.T) {
	svc, _, _, _, _ := newSubmissionFixture()
	ctx := context.Background()

	if _, err := svc.SubmitRoleChange(ctx, lector, "superuser"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown role should fail validation, got %v", err)
	}
	if _, err := svc.SubmitRoleChange(ctx, lector, models.RoleLector); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("requesting the held role should fail validation, got %v", err)
	}
}
