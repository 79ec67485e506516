// Package migrations holds the embedded SQLite schema.
package migrations

import "embed"

// FS contains the NNNN_name.up.sql and NNNN_name.down.sql files read by golang-migrate.
//
//go:embed *.sql
var FS embed.FS
