package domain

import "time"

// AuditFields holds the creation and last-modification timestamps of a persisted entity.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
