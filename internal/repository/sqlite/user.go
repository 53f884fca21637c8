package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/account-portal/internal/domain"
)

// UserRepository implements domain.UserRepository using SQLite.
// Uniqueness is enforced by the UNIQUE constraints on username and email.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

const userColumns = `username, email, password_hash, region, profile_picture, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.Email, user.PasswordHash, user.Region, user.ProfilePicture, now, now,
	)
	if err != nil {
		switch {
		case isUniqueConstraintError(err, "users.username"):
			return domain.ErrDuplicateUsername
		case isUniqueConstraintError(err, "users.email"):
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("%w: insert user: %v", domain.ErrStorage, err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UserRepository) Update(ctx context.Context, username string, patch domain.UserPatch) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET profile_picture = COALESCE(?, profile_picture), updated_at = ?
		 WHERE username = ?`,
		patch.ProfilePicture, now, username,
	)
	if err != nil {
		return fmt.Errorf("%w: update user: %v", domain.ErrStorage, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", domain.ErrStorage, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.Username, &user.Email, &user.PasswordHash, &user.Region,
		&user.ProfilePicture, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: query user: %v", domain.ErrStorage, err)
	}
	return user, nil
}

// isUniqueConstraintError checks if err is a SQLite unique constraint
// violation on the given table.column.
func isUniqueConstraintError(err error, column string) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
