package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	"github.com/SscSPs/auth_session_service/internal/models"
	"github.com/SscSPs/auth_session_service/internal/utils/mapping"
	"github.com/google/uuid"
)

// SessionRepository stores refresh-token sessions in SQLite.
type SessionRepository struct {
	store *Store
}

var _ portsrepo.SessionRepository = (*SessionRepository)(nil)

const sessionColumns = `id, token, user_id, created_at, updated_at`

func scanSessionRow(row rowScanner) (*domain.Session, error) {
	var (
		m         models.Session
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&m.ID, &m.Token, &m.UserID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	s := mapping.ToDomainSession(m)
	return &s, nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, userID string, fingerprint string, now time.Time) (*domain.Session, error) {
	at := toMillis(now)
	row := r.store.sqlDB.QueryRowContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?) RETURNING `+sessionColumns,
		uuid.NewString(), fingerprint, userID, at, at)
	session, err := scanSessionRow(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("session fingerprint collision: %w", apperrors.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) FindSessionByFingerprint(ctx context.Context, fingerprint string) (*domain.SessionWithUser, error) {
	row := r.store.sqlDB.QueryRowContext(ctx, `
		SELECT s.id, s.token, s.user_id, s.created_at, s.updated_at
		FROM sessions s
		WHERE s.token = ?`, fingerprint)
	session, err := scanSessionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session by fingerprint: %w", err)
	}
	user, err := (&UserRepository{store: r.store}).FindUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.SessionWithUser{Session: *session, User: *user}, nil
}

func (r *SessionRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	row := r.store.sqlDB.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, sessionID)
	session, err := scanSessionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session %s: %w", sessionID, err)
	}
	return session, nil
}

func (r *SessionRepository) ReplaceSessionFingerprint(ctx context.Context, fingerprint string, newFingerprint string, now time.Time) (*domain.Session, error) {
	// one statement conditional on the old fingerprint; a racing rotation sees no row
	row := r.store.sqlDB.QueryRowContext(ctx,
		`UPDATE sessions SET token = ?, updated_at = ? WHERE token = ? RETURNING `+sessionColumns,
		newFingerprint, toMillis(now), fingerprint)
	session, err := scanSessionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session already rotated or revoked: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) deleteWhere(ctx context.Context, where string, arg string) (int64, error) {
	res, err := r.store.sqlDB.ExecContext(ctx, `DELETE FROM sessions WHERE `+where, arg)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return res.RowsAffected()
}

func (r *SessionRepository) DeleteSessionByFingerprint(ctx context.Context, fingerprint string) error {
	n, err := r.deleteWhere(ctx, "token = ?", fingerprint)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteSessionByID(ctx context.Context, sessionID string) error {
	n, err := r.deleteWhere(ctx, "id = ?", sessionID)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	return r.deleteWhere(ctx, "user_id = ?", userID)
}

func (r *SessionRepository) ListSessionsByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := r.store.sqlDB.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = ? ORDER BY updated_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		session, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return sessions, nil
}
