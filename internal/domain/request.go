package domain

import "time"

// RequestStatus enumerates lifecycle states for requests.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// ValidStatus reports whether the value is a known status.
func ValidStatus(s RequestStatus) bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// RequestPriority enumerates urgency levels.
type RequestPriority string

const (
	RequestPriorityLow    RequestPriority = "low"
	RequestPriorityMedium RequestPriority = "medium"
	RequestPriorityHigh   RequestPriority = "high"
)

// ValidPriority reports whether the value is a known priority.
func ValidPriority(p RequestPriority) bool {
	switch p {
	case RequestPriorityLow, RequestPriorityMedium, RequestPriorityHigh:
		return true
	}
	return false
}

// Categories is the closed set of request categories the portal accepts.
var Categories = []string{"IT Support", "HR", "Facilities", "Finance"}

// ValidCategory reports whether the category belongs to the fixed set.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Request is the aggregate for portal submissions. OwnerID is immutable
// after creation; UpdatedAt increases on every mutation.
type Request struct {
	ID           string
	OwnerID      string
	CreatorEmail string
	Title        string
	Description  string
	Category     string
	Priority     RequestPriority
	Status       RequestStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
