package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	"github.com/SscSPs/auth_session_service/internal/models"
	"github.com/SscSPs/auth_session_service/internal/utils/mapping"
)

// UserRepository stores users in SQLite. Roles are kept as a JSON array.
type UserRepository struct {
	store *Store
}

var _ portsrepo.UserRepositoryFacade = (*UserRepository)(nil)

const userColumns = `id, username, email, password_hash, email_verified, roles, avatar, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUserRow(row rowScanner) (*domain.User, error) {
	var (
		m         models.User
		rolesJSON string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&m.ID, &m.Username, &m.Email, &m.PasswordHash, &m.EmailVerified,
		&rolesJSON, &m.Avatar, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rolesJSON), &m.Roles); err != nil {
		return nil, fmt.Errorf("decode roles of user %s: %w", m.ID, err)
	}
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	u := mapping.ToDomainUser(m)
	return &u, nil
}

func encodeRoles(roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	raw, err := json.Marshal(roles)
	return string(raw), err
}

func (r *UserRepository) SaveUser(ctx context.Context, user domain.User) error {
	m := mapping.ToModelUser(user)
	roles, err := encodeRoles(m.Roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}
	_, err = r.store.sqlDB.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Username, m.Email, m.PasswordHash, m.EmailVerified, roles, m.Avatar,
		toMillis(m.CreatedAt), toMillis(m.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s already exists: %w", user.Username, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg string) (*domain.User, error) {
	row := r.store.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	user, err := scanUserRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", userID)
}

func (r *UserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.store.sqlDB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	sets := []string{}
	args := []any{}
	if patch.Username != nil {
		sets, args = append(sets, "username = ?"), append(args, *patch.Username)
	}
	if patch.Email != nil {
		sets, args = append(sets, "email = ?"), append(args, *patch.Email)
	}
	if patch.PasswordHash != nil {
		sets, args = append(sets, "password_hash = ?"), append(args, *patch.PasswordHash)
	}
	if patch.EmailVerified != nil {
		sets, args = append(sets, "email_verified = ?"), append(args, *patch.EmailVerified)
	}
	if patch.Roles != nil {
		roles, err := encodeRoles(patch.Roles)
		if err != nil {
			return nil, fmt.Errorf("encode roles: %w", err)
		}
		sets, args = append(sets, "roles = ?"), append(args, roles)
	}
	if patch.Avatar != nil {
		sets, args = append(sets, "avatar = ?"), append(args, *patch.Avatar)
	}
	sets, args = append(sets, "updated_at = ?"), append(args, toMillis(r.store.now()))
	args = append(args, userID)

	row := r.store.sqlDB.QueryRowContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ? RETURNING `+userColumns, args...)
	user, err := scanUserRow(row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
		case isUniqueViolation(err):
			return nil, fmt.Errorf("username or email taken: %w", apperrors.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.store.sqlDB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) DeleteUsersByUsernames(ctx context.Context, usernames []string) (int64, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(usernames)), ", ")
	args := make([]any, len(usernames))
	for i, name := range usernames {
		args[i] = name
	}
	res, err := r.store.sqlDB.ExecContext(ctx, `DELETE FROM users WHERE username IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}
	return res.RowsAffected()
}
