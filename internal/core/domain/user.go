package domain

import "slices"

// User is a credential-bearing identity.
type User struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Email         string   `json:"email"`
	PasswordHash  string   `json:"-"` // never leaves the service
	EmailVerified bool     `json:"emailVerified"`
	Roles         []string `json:"roles"`
	Avatar        *string  `json:"avatar,omitempty"`
	AuditFields
}

// GetUserID, GetUsername and GetEmail let DTO helpers accept any user-like value.
func (u *User) GetUserID() string   { return u.ID }
func (u *User) GetUsername() string { return u.Username }
func (u *User) GetEmail() string    { return u.Email }

// HasRole reports whether the user currently holds role.
func (u *User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, string(role))
}

// Signed returns the reduced projection embedded in access tokens.
func (u *User) Signed() SignedUser {
	return SignedUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Roles:         slices.Clone(u.Roles),
		Avatar:        u.Avatar,
		CreatedAt:     u.CreatedAt,
	}
}

// UserPatch describes a partial update. Nil fields are left untouched.
type UserPatch struct {
	Username      *string
	Email         *string
	PasswordHash  *string
	EmailVerified *bool
	Roles         []string
	Avatar        *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Email == nil && p.PasswordHash == nil &&
		p.EmailVerified == nil && p.Roles == nil && p.Avatar == nil
}
