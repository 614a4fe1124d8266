package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"tinta/internal/domain"
	"tinta/internal/domain/models"
	"tinta/internal/domain/repositories"
)

// In-memory repository fakes. Each one keeps its records in a map guarded
// by a mutex and supports snapshot/restore so the fake transaction manager
// can roll back on error the way the real one does.

type snapshotter interface {
	snapshot() interface{}
	restore(interface{})
}

type memArticleRepo struct {
	mu       sync.Mutex
	articles map[string]models.Article
	// createErr makes the next Create fail, simulating a write error
	createErr error
}

func newMemArticleRepo() *memArticleRepo {
	return &memArticleRepo{articles: make(map[string]models.Article)}
}

func (m *memArticleRepo) snapshot() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]models.Article, len(m.articles))
	for k, v := range m.articles {
		cp[k] = v
	}
	return cp
}

func (m *memArticleRepo) restore(s interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.articles = s.(map[string]models.Article)
}

func (m *memArticleRepo) Create(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	m.articles[article.ID] = *article
	return nil
}

func (m *memArticleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	return &a, nil
}

func (m *memArticleRepo) Update(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[article.ID]; !ok {
		return fmt.Errorf("article %s: %w", article.ID, domain.ErrNotFound)
	}
	m.articles[article.ID] = *article
	return nil
}

func (m *memArticleRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	delete(m.articles, id)
	return nil
}

func (m *memArticleRepo) List(ctx context.Context, page, perPage int) ([]models.Article, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Article, 0, len(m.articles))
	for _, a := range m.articles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (m *memArticleRepo) GetAuthorID(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return "", fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	return a.AuthorID, nil
}

type memPendingRepo struct {
	mu      sync.Mutex
	records map[string]models.PendingArticle
	// updateErr makes the next Update fail, simulating a write error
	updateErr error
	createErr error
}

func newMemPendingRepo() *memPendingRepo {
	return &memPendingRepo{records: make(map[string]models.PendingArticle)}
}

func (m *memPendingRepo) snapshot() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]models.PendingArticle, len(m.records))
	for k, v := range m.records {
		cp[k] = v
	}
	return cp
}

func (m *memPendingRepo) restore(s interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = s.(map[string]models.PendingArticle)
}

func (m *memPendingRepo) Create(ctx context.Context, pa *models.PendingArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if pa.ID == "" {
		pa.ID = uuid.NewString()
	}
	m.records[pa.ID] = *pa
	return nil
}

func (m *memPendingRepo) GetByID(ctx context.Context, id string) (*models.PendingArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pa, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("pending article %s: %w", id, domain.ErrNotFound)
	}
	return &pa, nil
}

func (m *memPendingRepo) Update(ctx context.Context, pa *models.PendingArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	existing, ok := m.records[pa.ID]
	if !ok || !existing.Draft {
		return fmt.Errorf("draft %s: %w", pa.ID, domain.ErrNotFound)
	}
	pa.Draft = true
	m.records[pa.ID] = *pa
	return nil
}

func (m *memPendingRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return fmt.Errorf("pending article %s: %w", id, domain.ErrNotFound)
	}
	delete(m.records, id)
	return nil
}

func (m *memPendingRepo) Push(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pa, ok := m.records[id]
	if !ok {
		return fmt.Errorf("pending article %s: %w", id, domain.ErrNotFound)
	}
	if !pa.Draft {
		return fmt.Errorf("pending article %s already pushed: %w", id, domain.ErrInvalidTransition)
	}
	pa.Draft = false
	m.records[id] = pa
	return nil
}

func (m *memPendingRepo) ToDraft(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pa, ok := m.records[id]
	if !ok {
		return fmt.Errorf("pending article %s: %w", id, domain.ErrNotFound)
	}
	pa.Draft = true
	m.records[id] = pa
	return nil
}

func (m *memPendingRepo) FindDraftByOriginalArticle(ctx context.Context, articleID string) (*models.PendingArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pa := range m.records {
		if pa.Draft && pa.OriginalArticleID == articleID {
			cp := pa
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("draft for article %s: %w", articleID, domain.ErrNotFound)
}

func (m *memPendingRepo) ListDraftsByAuthor(ctx context.Context, authorID string, page, perPage int) ([]models.PendingArticle, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PendingArticle
	for _, pa := range m.records {
		if pa.Draft && pa.AuthorID == authorID {
			out = append(out, pa)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

type memRequestRepo struct {
	mu       sync.Mutex
	requests map[string]models.Request
	// createErr makes the next Create fail, simulating a write error
	createErr error
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{requests: make(map[string]models.Request)}
}

func (m *memRequestRepo) snapshot() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]models.Request, len(m.requests))
	for k, v := range m.requests {
		cp[k] = v
	}
	return cp
}

func (m *memRequestRepo) restore(s interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = s.(map[string]models.Request)
}

func (m *memRequestRepo) Create(ctx context.Context, req *models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		err := m.createErr
		m.createErr = nil
		return err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	m.requests[req.ID] = *req
	return nil
}

func (m *memRequestRepo) GetByID(ctx context.Context, id string) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	return &req, nil
}

func (m *memRequestRepo) List(ctx context.Context, filter repositories.RequestFilter, page, perPage int) ([]models.Request, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Request
	for _, req := range m.requests {
		if filter.State != "" && req.State != filter.State {
			continue
		}
		if filter.Kind != "" && req.Kind != filter.Kind {
			continue
		}
		if filter.AuthorID != "" && req.AuthorID != filter.AuthorID {
			continue
		}
		if filter.PendingArticleID != "" && req.PendingArticleID != filter.PendingArticleID {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (m *memRequestRepo) Transition(ctx context.Context, id string, to models.RequestState, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	if req.State != models.StatePending {
		return &domain.StateError{RequestID: id, Attempted: string(to)}
	}
	req.State = to
	req.RejectionReason = reason
	m.requests[id] = req
	return nil
}

func (m *memRequestRepo) BindPublishedArticle(ctx context.Context, id, articleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}
	req.PublishedArticleID = articleID
	m.requests[id] = req
	return nil
}

func (m *memRequestRepo) HasPendingUpdate(ctx context.Context, articleID string) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests {
		if req.Kind == models.KindUpdateArticle && req.State == models.StatePending && req.OriginalArticleID == articleID {
			return true, req.ID, nil
		}
	}
	return false, "", nil
}

func (m *memRequestRepo) HasPendingRoleRequest(ctx context.Context, userID string) (bool, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests {
		if req.Kind == models.KindRoleChange && req.State == models.StatePending && req.AuthorID == userID {
			return true, req.ID, nil
		}
	}
	return false, "", nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserRepo(users ...models.User) *memUserRepo {
	m := &memUserRepo{users: make(map[string]models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUserRepo) snapshot() interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]models.User, len(m.users))
	for k, v := range m.users {
		cp[k] = v
	}
	return cp
}

func (m *memUserRepo) restore(s interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = s.(map[string]models.User)
}

func (m *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (m *memUserRepo) CreateIfNotExists(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; ok {
		return nil
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memUserRepo) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memUserRepo) UpdateRole(ctx context.Context, id string, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	u.Role = role
	m.users[id] = u
	return nil
}

// memTxManager mimics transactional rollback: every repo is snapshotted
// before the function runs and restored if it fails.
type memTxManager struct {
	repos []snapshotter
}

func newMemTxManager(repos ...snapshotter) *memTxManager {
	return &memTxManager{repos: repos}
}

func (m *memTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	snaps := make([]interface{}, len(m.repos))
	for i, r := range m.repos {
		snaps[i] = r.snapshot()
	}
	if err := fn(ctx); err != nil {
		for i, r := range m.repos {
			r.restore(snaps[i])
		}
		return err
	}
	return nil
}
