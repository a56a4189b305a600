package dto

import (
	"time"

	"github.com/spec-kit/request-portal/internal/domain"
)

// CreateRequestPayload payload.
type CreateRequestPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// UpdateRequestPayload carries a partial patch. Absent or empty fields are
// left untouched.
type UpdateRequestPayload struct {
	Status      string `json:"status"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// RequestResponse is the wire representation of a request, annotated with
// the creator's email.
type RequestResponse struct {
	ID           string                 `json:"id"`
	UserID       string                 `json:"user_id"`
	CreatorEmail string                 `json:"creator_email,omitempty"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	Category     string                 `json:"category"`
	Priority     domain.RequestPriority `json:"priority"`
	Status       domain.RequestStatus   `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// DeleteRequestResponse confirms a deletion.
type DeleteRequestResponse struct {
	Message        string          `json:"message"`
	DeletedRequest RequestResponse `json:"deletedRequest"`
}
