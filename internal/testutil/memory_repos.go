// Package testutil provides in-memory repository fakes mirroring the
// Postgres implementations closely enough for service and HTTP tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/request-portal/internal/domain"
	"github.com/spec-kit/request-portal/internal/repository"
)

// MemoryUserRepo is an in-memory repository.UserRepository.
type MemoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by id
}

// NewMemoryUserRepo builds an empty repo.
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]*domain.User)}
}

func (r *MemoryUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *MemoryUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryUserRepo) emailOf(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		return user.Email
	}
	return ""
}

// MemoryRequestRepo is an in-memory repository.RequestRepository. Reads are
// annotated with the creator email, matching the SQL join.
type MemoryRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.Request
	users    *MemoryUserRepo
}

// NewMemoryRequestRepo builds an empty repo backed by the given users.
func NewMemoryRequestRepo(users *MemoryUserRepo) *MemoryRequestRepo {
	return &MemoryRequestRepo{requests: make(map[string]*domain.Request), users: users}
}

func (r *MemoryRequestRepo) Create(_ context.Context, req *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	req.ID = uuid.NewString()
	req.CreatedAt = now
	req.UpdatedAt = now
	clone := *req
	clone.CreatorEmail = ""
	r.requests[req.ID] = &clone
	return nil
}

func (r *MemoryRequestRepo) GetByID(_ context.Context, id string) (*domain.Request, error) {
	r.mu.Lock()
	req, ok := r.requests[id]
	var clone domain.Request
	if ok {
		clone = *req
	}
	r.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.annotate(&clone), nil
}

func (r *MemoryRequestRepo) ListAll(_ context.Context) ([]domain.Request, error) {
	return r.listWhere(func(*domain.Request) bool { return true }), nil
}

func (r *MemoryRequestRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Request, error) {
	return r.listWhere(func(req *domain.Request) bool { return req.OwnerID == ownerID }), nil
}

func (r *MemoryRequestRepo) ApplyPatch(_ context.Context, id string, patch repository.RequestPatch) (*domain.Request, error) {
	r.mu.Lock()
	req, ok := r.requests[id]
	// a status write only matches rows still pending, like the SQL guard
	if !ok || (patch.Status != nil && req.Status != domain.RequestStatusPending) {
		r.mu.Unlock()
		return nil, pgx.ErrNoRows
	}
	if patch.Status != nil {
		req.Status = *patch.Status
	}
	if patch.Title != nil {
		req.Title = *patch.Title
	}
	if patch.Description != nil {
		req.Description = *patch.Description
	}
	if patch.Priority != nil {
		req.Priority = *patch.Priority
	}
	now := time.Now()
	if !now.After(req.UpdatedAt) {
		now = req.UpdatedAt.Add(time.Microsecond)
	}
	req.UpdatedAt = now
	clone := *req
	r.mu.Unlock()
	return r.annotate(&clone), nil
}

func (r *MemoryRequestRepo) Delete(_ context.Context, id string) (*domain.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	delete(r.requests, id)
	clone := *req
	return &clone, nil
}

func (r *MemoryRequestRepo) listWhere(keep func(*domain.Request) bool) []domain.Request {
	r.mu.Lock()
	matched := make([]domain.Request, 0, len(r.requests))
	for _, req := range r.requests {
		if keep(req) {
			matched = append(matched, *req)
		}
	}
	r.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	for i := range matched {
		r.annotate(&matched[i])
	}
	return matched
}

// annotate fills in the creator email the SQL join would supply. It must
// be called on a copy, never on a map-held request.
func (r *MemoryRequestRepo) annotate(req *domain.Request) *domain.Request {
	req.CreatorEmail = r.users.emailOf(req.OwnerID)
	return req
}

// MemoryAuditRepo is an in-memory repository.AuditRepository.
type MemoryAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

// NewMemoryAuditRepo builds an empty repo.
func NewMemoryAuditRepo() *MemoryAuditRepo {
	return &MemoryAuditRepo{}
}

func (r *MemoryAuditRepo) Create(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *MemoryAuditRepo) ListByRequest(_ context.Context, requestID string) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.RequestID == requestID {
			result = append(result, entry)
		}
	}
	return result, nil
}
