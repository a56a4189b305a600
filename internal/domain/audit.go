package domain

import "time"

// AuditAction captures what happened to a request.
type AuditAction string

const (
	AuditStatusChange   AuditAction = "STATUS_CHANGE"
	AuditRequestDeleted AuditAction = "REQUEST_DELETED"
)

// AuditEntry is an immutable trail record. Rejected transitions are never
// written, so the trail reflects only changes that actually took effect.
type AuditEntry struct {
	ID         string
	RequestID  string
	ActorID    string
	ActorEmail string
	Action     AuditAction
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
