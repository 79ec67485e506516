package models

import (
	"database/sql"
)

// User is a row of the users table.
type User struct {
	ID            string         `db:"id"`
	Username      string         `db:"username"`
	Email         string         `db:"email"`
	PasswordHash  string         `db:"password_hash"`
	EmailVerified bool           `db:"email_verified"`
	Roles         []string       `db:"roles"`
	Avatar        sql.NullString `db:"avatar"`
	AuditFields
}
