package domain

// Identity is the caller extracted from a verified session token. The
// claims are trusted as-is: a role change does not take effect until the
// current token expires.
type Identity struct {
	ID    string
	Email string
	Role  Role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
