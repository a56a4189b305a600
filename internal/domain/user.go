package domain

import "time"

// Role enumerates portal access levels.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ValidRole reports whether the value is a known role.
func ValidRole(r Role) bool {
	return r == RoleMember || r == RoleAdmin
}

// User is the domain model for portal accounts. Accounts are provisioned
// out-of-band (see cmd/seed); the service itself never mutates them.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
