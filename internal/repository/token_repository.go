package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo persists refresh tokens. Only the SHA-256 hash of the raw
// token is stored.
type TokenRepo struct{ DB *sql.DB }

// NewTokenRepo returns a repository backed by db.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row for userID that expires at
// exp. The raw token is never passed in; callers hash it first.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh returns the owner of a token that is neither revoked nor
// expired. Anything else is ErrNotFound.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid || time.Now().UTC().After(expiresAt) {
		return 0, ErrNotFound
	}
	return userID, nil
}

// Consume revokes a live token and returns its owner. Of two concurrent
// calls with the same hash at most one succeeds; the other gets
// ErrNotFound.
func (r *TokenRepo) Consume(ctx context.Context, tokenHash string) (uint64, error) {
	userID, err := r.ValidateRefresh(ctx, tokenHash)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return userID, nil
}

// RevokeAllForUser revokes all of a user's active tokens. It is used when
// an admin logs out everywhere; already revoked rows keep their original
// revocation time.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// PurgeExpired deletes tokens that expired or were revoked before cutoff.
func (r *TokenRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked_at < ?",
		cutoff, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
