package domain

import "time"

// Session is one refresh-token record. Token holds the fingerprint of the raw
// refresh secret, never the secret itself.
type Session struct {
	ID     string `json:"id"`
	Token  string `json:"token"`
	UserID string `json:"userId"`
	AuditFields
}

// Expired reports whether the session is older than ttl, measured from its last rotation.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.UpdatedAt) > ttl
}

// SessionWithUser is a session joined with its owning user.
type SessionWithUser struct {
	Session
	User User
}
