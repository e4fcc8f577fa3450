package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/aminjonov/taskhub/internal/model"
)

// UserRepo manages persistence for the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,email,username,password_hash,is_active,created_at,updated_at"

// Create inserts a user and returns its id. Uniqueness of email and
// username is enforced by the uq_users_email / uq_users_username keys, not
// by an application-level scan, so concurrent registrations cannot race.
// MySQL duplicate-key errors (1062) are mapped to the matching sentinel by
// inspecting the violated key name, email checked first.
func (r *UserRepo) Create(ctx context.Context, email, username, passwordHash string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash, is_active) VALUES (?,?,?,1)",
		email, username, passwordHash)
	if err != nil {
		if dup := duplicateKeyError(err); dup != nil {
			return 0, dup
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByUsername fetches a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// List returns a page of users ordered by id.
func (r *UserRepo) List(ctx context.Context, skip, limit int) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userCols+" FROM users ORDER BY id ASC LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// duplicateKeyError maps a MySQL 1062 violation to its sentinel by the
// violated key name. A 1062 on any other unique key returns nil so the
// caller surfaces the raw error instead of mislabeling it.
func duplicateKeyError(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return nil
	}
	if strings.Contains(msg, "uq_users_email") {
		return ErrEmailExists
	}
	if strings.Contains(msg, "uq_users_username") {
		return ErrUsernameExists
	}
	return nil
}

func (r *UserRepo) getBy(ctx context.Context, col, val string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE "+col+"=? LIMIT 1", val).
		Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
