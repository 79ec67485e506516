package mapping

import (
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/SscSPs/auth_session_service/internal/models"
)

// ToDomainSession converts a model Session to a domain Session
func ToDomainSession(m models.Session) domain.Session {
	return domain.Session{
		ID:          m.ID,
		Token:       m.Token,
		UserID:      m.UserID,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainSessionSlice converts a slice of model Sessions to a slice of domain Sessions
func ToDomainSessionSlice(ms []models.Session) []domain.Session {
	ds := make([]domain.Session, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainSession(m)
	}
	return ds
}
