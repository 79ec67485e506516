package models

// Session is a row of the sessions table. Token holds the refresh-secret fingerprint.
type Session struct {
	ID     string `db:"id"`
	Token  string `db:"token"`
	UserID string `db:"user_id"`
	AuditFields
}
