package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := domain.Session{AuditFields: domain.AuditFields{UpdatedAt: now.Add(-2 * time.Hour)}}

	assert.True(t, s.Expired(now, time.Hour))
	assert.False(t, s.Expired(now, 3*time.Hour))
}

func TestHasAnyRole(t *testing.T) {
	held := []string{"user"}

	assert.True(t, domain.HasAnyRole(held, domain.RoleAdmin, domain.RoleUser))
	assert.False(t, domain.HasAnyRole(held, domain.RoleAdmin))
	assert.False(t, domain.HasAnyRole(held))
}

func TestUserJSONNeverContainsPassword(t *testing.T) {
	u := domain.User{ID: "u1", Username: "u1", Email: "u1@x.com", PasswordHash: "$2a$10$secret"}

	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
}

func TestSignedProjectionDropsUpdatedAt(t *testing.T) {
	u := domain.User{ID: "u1", Username: "u1", Email: "u1@x.com", Roles: []string{"user"}}
	u.UpdatedAt = time.Now()

	raw, err := json.Marshal(u.Signed())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "updatedAt")

	signed := u.Signed()
	signed.Roles[0] = "admin"
	assert.Equal(t, "user", u.Roles[0])
}
