package domain

import "slices"

// Role is a role tag attached to a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// DefaultRoles are assigned to every new account.
func DefaultRoles() []string {
	return []string{string(RoleUser)}
}

// HasAnyRole reports whether held intersects required.
func HasAnyRole(held []string, required ...Role) bool {
	for _, r := range required {
		if slices.Contains(held, string(r)) {
			return true
		}
	}
	return false
}
