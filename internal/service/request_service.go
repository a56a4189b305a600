package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/request-portal/internal/domain"
	"github.com/spec-kit/request-portal/internal/events"
	"github.com/spec-kit/request-portal/internal/repository"
	apperrors "github.com/spec-kit/request-portal/pkg/util"
)

// RequestService enforces the request lifecycle and authorization rules on
// top of the request store. It is the sole mutator of requests.
type RequestService struct {
	requests   repository.RequestRepository
	audit      repository.AuditRepository
	dispatcher events.Dispatcher
}

// RequestDependencies bundles repositories for the request service.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	AuditRepo   repository.AuditRepository
	Dispatcher  events.Dispatcher
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:   deps.RequestRepo,
		audit:      deps.AuditRepo,
		dispatcher: deps.Dispatcher,
	}
}

// RequestCreateInput describes the creation payload.
type RequestCreateInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
}

// RequestUpdateInput describes a partial update. An empty field is left
// untouched; a present but blank title or description is rejected, so a
// client can never clear either field.
type RequestUpdateInput struct {
	Status      string
	Title       string
	Description string
	Priority    string
}

// Status transitions permitted by the lifecycle. Approved and rejected are
// terminal: attempts to leave them are rejected, never silently ignored.
var allowedTransitions = map[domain.RequestStatus][]domain.RequestStatus{
	domain.RequestStatusPending:  {domain.RequestStatusApproved, domain.RequestStatusRejected},
	domain.RequestStatusApproved: {},
	domain.RequestStatusRejected: {},
}

func isValidTransition(current, next domain.RequestStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Create validates and stores a new request. Any authenticated identity may
// create; the caller becomes the immutable owner and status starts pending.
func (s *RequestService) Create(ctx context.Context, identity *domain.Identity, input RequestCreateInput) (*domain.Request, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{
			"category":   input.Category,
			"categories": domain.Categories,
		})
	}

	priority := domain.RequestPriority(input.Priority)
	if !domain.ValidPriority(priority) {
		priority = domain.RequestPriorityMedium
	}

	req := &domain.Request{
		OwnerID:     identity.ID,
		Title:       title,
		Description: description,
		Category:    input.Category,
		Priority:    priority,
		Status:      domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	req.CreatorEmail = identity.Email

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: req.ID,
		Actor:     actorFrom(identity),
		Payload: events.RequestCreatedPayload{
			Title:    req.Title,
			Category: req.Category,
			Priority: req.Priority,
		},
	})
	return req, nil
}

// List returns requests visible to the caller: every request for admins,
// only owned requests otherwise. Both orderings are created_at descending.
func (s *RequestService) List(ctx context.Context, identity *domain.Identity) ([]domain.Request, error) {
	if identity.IsAdmin() {
		return s.requests.ListAll(ctx)
	}
	return s.requests.ListByOwner(ctx, identity.ID)
}

// Update applies a partial patch. Status transitions are admin-only and
// restricted to the lifecycle table; other field edits require the owner or
// an admin. updated_at is stamped even when no recognized field changed.
func (s *RequestService) Update(ctx context.Context, identity *domain.Identity, id string, input RequestUpdateInput) (*domain.Request, error) {
	existing, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	var patch repository.RequestPatch

	if input.Status != "" {
		newStatus := domain.RequestStatus(input.Status)
		if !domain.ValidStatus(newStatus) {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": input.Status})
		}
		if !identity.IsAdmin() {
			return nil, apperrors.NewForbidden("only admins may change request status")
		}
		if !isValidTransition(existing.Status, newStatus) {
			return nil, apperrors.NewConflict("invalid status transition")
		}
		patch.Status = &newStatus
	}

	if input.Title != "" {
		title := strings.TrimSpace(input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title must not be blank", nil)
		}
		patch.Title = &title
	}
	if input.Description != "" {
		description := strings.TrimSpace(input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description must not be blank", nil)
		}
		patch.Description = &description
	}
	if input.Priority != "" {
		priority := domain.RequestPriority(input.Priority)
		if !domain.ValidPriority(priority) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
		}
		patch.Priority = &priority
	}

	editsFields := patch.Title != nil || patch.Description != nil || patch.Priority != nil
	if editsFields && !s.canEdit(identity, existing) {
		return nil, apperrors.NewForbidden("only the owner or an admin may edit a request")
	}

	updated, err := s.requests.ApplyPatch(ctx, id, patch)
	if err != nil {
		// A status write matches no row when a concurrent update resolved
		// the request first; report the transition conflict, not a 404.
		if patch.Status != nil && errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := s.requests.GetByID(ctx, id); getErr == nil {
				return nil, apperrors.NewConflict("invalid status transition")
			}
		}
		return nil, mapNotFound(err)
	}

	if patch.Status != nil {
		s.recordStatusChange(ctx, identity, existing, updated)
		s.publishEvent(ctx, events.Event{
			Type:      events.EventRequestStatusChanged,
			RequestID: updated.ID,
			Actor:     actorFrom(identity),
			Payload: events.RequestStatusChangedPayload{
				OldStatus: existing.Status,
				NewStatus: updated.Status,
			},
		})
	}
	return updated, nil
}

// Delete removes a request. Only the owner or an admin may delete; the
// deleted record is returned for confirmation.
func (s *RequestService) Delete(ctx context.Context, identity *domain.Identity, id string) (*domain.Request, error) {
	existing, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if !s.canEdit(identity, existing) {
		return nil, apperrors.NewForbidden("only the owner or an admin may delete a request")
	}

	deleted, err := s.requests.Delete(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	deleted.CreatorEmail = existing.CreatorEmail

	s.recordDeletion(ctx, identity, deleted)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestDeleted,
		RequestID: deleted.ID,
		Actor:     actorFrom(identity),
		Payload: events.RequestDeletedPayload{
			Title:  deleted.Title,
			Status: deleted.Status,
		},
	})
	return deleted, nil
}

func (s *RequestService) canEdit(identity *domain.Identity, req *domain.Request) bool {
	return identity.IsAdmin() || identity.ID == req.OwnerID
}

func (s *RequestService) recordStatusChange(ctx context.Context, identity *domain.Identity, before, after *domain.Request) {
	if s.audit == nil {
		return
	}
	entry := &domain.AuditEntry{
		RequestID:  after.ID,
		ActorID:    identity.ID,
		ActorEmail: identity.Email,
		Action:     domain.AuditStatusChange,
		OldValue:   map[string]any{"status": before.Status},
		NewValue:   map[string]any{"status": after.Status},
	}
	_ = s.audit.Create(ctx, entry)
}

func (s *RequestService) recordDeletion(ctx context.Context, identity *domain.Identity, deleted *domain.Request) {
	if s.audit == nil {
		return
	}
	entry := &domain.AuditEntry{
		RequestID:  deleted.ID,
		ActorID:    identity.ID,
		ActorEmail: identity.Email,
		Action:     domain.AuditRequestDeleted,
		OldValue: map[string]any{
			"title":  deleted.Title,
			"status": deleted.Status,
		},
	}
	_ = s.audit.Create(ctx, entry)
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorFrom(identity *domain.Identity) events.Actor {
	return events.Actor{
		UserID: identity.ID,
		Email:  identity.Email,
		Role:   identity.Role,
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("Request")
	}
	return err
}
