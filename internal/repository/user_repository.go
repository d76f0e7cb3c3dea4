package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/event-ticketing-admin/internal/model"
	"github.com/iliyamo/event-ticketing-admin/internal/utils"
)

// UserRepo persists admin accounts. Emails are stored lower-cased and
// trimmed so that lookups never depend on how the address was typed.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a repository backed by db.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,role,is_active,created_at,updated_at"

// Create hashes password with bcrypt at the given cost, inserts the user
// and returns its ID. A password outside the length policy is rejected
// before any SQL runs. An email that already exists yields ErrConflict.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = normalizeEmail(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// EnsureAdmin creates the bootstrap admin when no user with that email
// exists yet. It reports whether a row was created.
func (r *UserRepo) EnsureAdmin(ctx context.Context, email, password string, cost int) (bool, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return false, nil
	}
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := r.Create(ctx, email, password, model.RoleAdmin, cost); err != nil {
		// a concurrent start-up may have won the insert
		if errors.Is(err, ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetByEmail fetches a user by email after normalising it the same way
// Create does. A missing user yields ErrNotFound; inactive users are
// returned so the caller can decide how to treat them.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
}

// GetByID fetches a user by primary key. A missing user yields
// ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// scanOne runs a single-row user query and maps sql.ErrNoRows to
// ErrNotFound.
func (r *UserRepo) scanOne(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
