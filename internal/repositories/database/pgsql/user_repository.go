package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/SscSPs/auth_session_service/internal/apperrors"
	"github.com/SscSPs/auth_session_service/internal/core/domain"
	portsrepo "github.com/SscSPs/auth_session_service/internal/core/ports/repositories"
	"github.com/SscSPs/auth_session_service/internal/models"
	"github.com/SscSPs/auth_session_service/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(db DBTX) *PgxUserRepository {
	return &PgxUserRepository{BaseRepository: BaseRepository{DB: db}}
}

// Ensure PgxUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

const (
	selectUserFields = `id, username, email, password_hash, email_verified, roles, avatar, created_at, updated_at`

	insertUserQuery = `
		INSERT INTO users (` + selectUserFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	findUserByIDQuery       = `SELECT ` + selectUserFields + ` FROM users WHERE id = $1`
	findUserByUsernameQuery = `SELECT ` + selectUserFields + ` FROM users WHERE username = $1`
	findUserByEmailQuery    = `SELECT ` + selectUserFields + ` FROM users WHERE lower(email) = lower($1)`

	findUsersQuery = `
		SELECT ` + selectUserFields + `
		FROM users
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	deleteUserQuery            = `DELETE FROM users WHERE id = $1`
	deleteUsersByUsernameQuery = `DELETE FROM users WHERE username = ANY($1)`
)

// scanUser scans a single users row.
func scanUser(row pgx.Row) (*domain.User, error) {
	var m models.User
	if err := row.Scan(
		&m.ID,
		&m.Username,
		&m.Email,
		&m.PasswordHash,
		&m.EmailVerified,
		&m.Roles,
		&m.Avatar,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u := mapping.ToDomainUser(m)
	return &u, nil
}

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	m := mapping.ToModelUser(user)
	_, err := r.exec(ctx, insertUserQuery,
		m.ID,
		m.Username,
		m.Email,
		m.PasswordHash,
		m.EmailVerified,
		m.Roles,
		m.Avatar,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s already exists: %w", user.Username, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (r *PgxUserRepository) findOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	user, err := scanUser(r.queryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.findOne(ctx, findUserByIDQuery, userID)
}

func (r *PgxUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, findUserByUsernameQuery, username)
}

func (r *PgxUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, findUserByEmailQuery, email)
}

func (r *PgxUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	// Default limit if not specified or invalid
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.query(ctx, findUsersQuery, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, *user)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", rows.Err())
	}
	return users, nil
}

// buildUserUpdate renders the SET clause for patch. updated_at is always bumped.
func buildUserUpdate(userID string, patch domain.UserPatch) (string, []any) {
	sets := []string{}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Email != nil {
		add("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		add("password_hash", *patch.PasswordHash)
	}
	if patch.EmailVerified != nil {
		add("email_verified", *patch.EmailVerified)
	}
	if patch.Roles != nil {
		add("roles", patch.Roles)
	}
	if patch.Avatar != nil {
		add("avatar", *patch.Avatar)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, userID)

	query := "UPDATE users SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + selectUserFields
	return query, args
}

func (r *PgxUserRepository) UpdateUser(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	query, args := buildUserUpdate(userID, patch)
	user, err := scanUser(r.queryRow(ctx, query, args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
		case isUniqueViolation(err):
			return nil, fmt.Errorf("username or email taken: %w", apperrors.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (r *PgxUserRepository) DeleteUser(ctx context.Context, userID string) error {
	cmdTag, err := r.exec(ctx, deleteUserQuery, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxUserRepository) DeleteUsersByUsernames(ctx context.Context, usernames []string) (int64, error) {
	if len(usernames) == 0 {
		return 0, nil
	}
	cmdTag, err := r.exec(ctx, deleteUsersByUsernameQuery, usernames)
	if err != nil {
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
