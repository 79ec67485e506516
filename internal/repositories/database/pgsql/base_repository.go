package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the repositories use. pgxmock satisfies it too.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	DB DBTX
}

// queryRow is a helper method to execute a query that returns a single row
func (r *BaseRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return r.DB.QueryRow(ctx, sql, args...)
}

// query is a helper method to execute a query that returns multiple rows
func (r *BaseRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return r.DB.Query(ctx, sql, args...)
}

// exec is a helper method to execute a query that doesn't return rows
func (r *BaseRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return r.DB.Exec(ctx, sql, args...)
}

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
