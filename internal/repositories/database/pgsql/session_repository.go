package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	"github.com/SscSPs/auth_session_service/internal/models"
	"github.com/SscSPs/auth_session_service/internal/utils/mapping"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PgxSessionRepository struct {
	BaseRepository
}

func newPgxSessionRepository(db DBTX) *PgxSessionRepository {
	return &PgxSessionRepository{BaseRepository: BaseRepository{DB: db}}
}

var _ portsrepo.SessionRepository = (*PgxSessionRepository)(nil)

const (
	selectSessionFields = `id, token, user_id, created_at, updated_at`

	insertSessionQuery = `
		INSERT INTO sessions (id, token, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING ` + selectSessionFields

	findSessionWithUserQuery = `
		SELECT s.id, s.token, s.user_id, s.created_at, s.updated_at,
		       u.id, u.username, u.email, u.password_hash, u.email_verified, u.roles, u.avatar, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1`

	findSessionByIDQuery = `SELECT ` + selectSessionFields + ` FROM sessions WHERE id = $1`

	// single statement, conditional on the old fingerprint
	replaceSessionFingerprintQuery = `
		UPDATE sessions
		SET token = $2, updated_at = $3
		WHERE token = $1
		RETURNING ` + selectSessionFields

	deleteSessionByFingerprintQuery = `DELETE FROM sessions WHERE token = $1`
	deleteSessionByIDQuery          = `DELETE FROM sessions WHERE id = $1`
	deleteSessionsByUserIDQuery     = `DELETE FROM sessions WHERE user_id = $1`

	listSessionsByUserIDQuery = `
		SELECT ` + selectSessionFields + `
		FROM sessions
		WHERE user_id = $1
		ORDER BY updated_at DESC`
)

func scanSession(row pgx.Row) (*domain.Session, error) {
	var m models.Session
	if err := row.Scan(&m.ID, &m.Token, &m.UserID, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	s := mapping.ToDomainSession(m)
	return &s, nil
}

func (r *PgxSessionRepository) CreateSession(ctx context.Context, userID string, fingerprint string, now time.Time) (*domain.Session, error) {
	session, err := scanSession(r.queryRow(ctx, insertSessionQuery, uuid.NewString(), fingerprint, userID, now.UTC()))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("session fingerprint collision: %w", apperrors.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (r *PgxSessionRepository) FindSessionByFingerprint(ctx context.Context, fingerprint string) (*domain.SessionWithUser, error) {
	var s models.Session
	var u models.User
	err := r.queryRow(ctx, findSessionWithUserQuery, fingerprint).Scan(
		&s.ID, &s.Token, &s.UserID, &s.CreatedAt, &s.UpdatedAt,
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.EmailVerified, &u.Roles, &u.Avatar, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session by fingerprint: %w", err)
	}
	return &domain.SessionWithUser{
		Session: mapping.ToDomainSession(s),
		User:    mapping.ToDomainUser(u),
	}, nil
}

func (r *PgxSessionRepository) FindSessionByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := scanSession(r.queryRow(ctx, findSessionByIDQuery, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session %s: %w", sessionID, err)
	}
	return session, nil
}

func (r *PgxSessionRepository) ReplaceSessionFingerprint(ctx context.Context, fingerprint string, newFingerprint string, now time.Time) (*domain.Session, error) {
	session, err := scanSession(r.queryRow(ctx, replaceSessionFingerprintQuery, fingerprint, newFingerprint, now.UTC()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session already rotated or revoked: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}
	return session, nil
}

func (r *PgxSessionRepository) deleteOne(ctx context.Context, query string, arg string) error {
	cmdTag, err := r.exec(ctx, query, arg)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxSessionRepository) DeleteSessionByFingerprint(ctx context.Context, fingerprint string) error {
	return r.deleteOne(ctx, deleteSessionByFingerprintQuery, fingerprint)
}

func (r *PgxSessionRepository) DeleteSessionByID(ctx context.Context, sessionID string) error {
	return r.deleteOne(ctx, deleteSessionByIDQuery, sessionID)
}

func (r *PgxSessionRepository) DeleteSessionsByUserID(ctx context.Context, userID string) (int64, error) {
	cmdTag, err := r.exec(ctx, deleteSessionsByUserIDQuery, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions of user %s: %w", userID, err)
	}
	return cmdTag.RowsAffected(), nil
}

func (r *PgxSessionRepository) ListSessionsByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := r.query(ctx, listSessionsByUserIDQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, *session)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", rows.Err())
	}
	return sessions, nil
}
