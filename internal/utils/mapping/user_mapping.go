package mapping

import (
	"database/sql"
	"slices"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/SscSPs/auth_session_service/internal/models"
)

// ToModelUser converts a domain User to a model User
func ToModelUser(d domain.User) models.User {
	m := models.User{
		ID:            d.ID,
		Username:      d.Username,
		Email:         d.Email,
		PasswordHash:  d.PasswordHash,
		EmailVerified: d.EmailVerified,
		Roles:         slices.Clone(d.Roles),
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
	if m.Roles == nil {
		m.Roles = []string{}
	}
	if d.Avatar != nil {
		m.Avatar = sql.NullString{String: *d.Avatar, Valid: true}
	}
	return m
}

// ToDomainUser converts a model User to a domain User
func ToDomainUser(m models.User) domain.User {
	d := domain.User{
		ID:            m.ID,
		Username:      m.Username,
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		EmailVerified: m.EmailVerified,
		Roles:         m.Roles,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
	if d.Roles == nil {
		d.Roles = []string{}
	}
	if m.Avatar.Valid {
		avatar := m.Avatar.String
		d.Avatar = &avatar
	}
	return d
}

// ToDomainUserSlice converts a slice of model Users to a slice of domain Users
func ToDomainUserSlice(ms []models.User) []domain.User {
	ds := make([]domain.User, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainUser(m)
	}
	return ds
}
