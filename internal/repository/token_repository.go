package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tenant-auth/internal/model"
)

// TokenRepo persists refresh-token rows.  The generated row id is the
// linkage to the refresh JWT's jti claim, so inserts must return it.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Create inserts a refresh-token row for the user and returns its id.
func (r *TokenRepo) Create(ctx context.Context, userID uint64, expiresAt time.Time) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, expires_at, created_at) VALUES (?,?,?)",
		userID, expiresAt.UTC(), time.Now().UTC())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Get returns the row with the given id, regardless of ownership or expiry.
func (r *TokenRepo) Get(ctx context.Context, id uint64) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, created_at FROM refresh_tokens WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RefreshToken{}, ErrNotFound
		}
		return model.RefreshToken{}, err
	}
	return t, nil
}

// Exists reports whether a non-expired row with the given id belongs to the
// given user.  This is the revocation check: a rotated or logged-out token
// has no row and fails here even though its JWT signature is still valid.
func (r *TokenRepo) Exists(ctx context.Context, id, userID uint64) (bool, error) {
	var expiresAt time.Time
	err := r.DB.QueryRowContext(ctx,
		"SELECT expires_at FROM refresh_tokens WHERE id=? AND user_id=? LIMIT 1",
		id, userID).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if time.Now().UTC().After(expiresAt) {
		return false, nil
	}
	return true, nil
}

// DeleteByID removes one row.  Deleting an already-deleted row is a no-op,
// which keeps rotation and repeated logout idempotent.
func (r *TokenRepo) DeleteByID(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id=?", id)
	return err
}

// DeleteAllForUser removes every row belonging to a user ("log out
// everywhere").
func (r *TokenRepo) DeleteAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE user_id=?", userID)
	return err
}

// CountForUser returns the number of rows belonging to a user.
func (r *TokenRepo) CountForUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM refresh_tokens WHERE user_id=?", userID).Scan(&n)
	return n, err
}
