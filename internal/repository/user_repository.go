package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/tenant-auth/internal/model"
)

// UserRepo persists user records.  Read projections never select the
// password hash; GetCredentialsByEmail is the single query that does, and
// only the login path uses it.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UserUpdate carries the optional fields of a partial update.  Nil means
// "leave unchanged".
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *string
	TenantID  *uint64
}

// Create inserts a user and returns its generated id.  The caller supplies
// an already-hashed password.  A duplicate email maps to ErrEmailExists,
// whether caught by a pre-check upstream or by the unique constraint here.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	now := time.Now().UTC()
	var tenantID sql.NullInt64
	if u.TenantID != nil {
		tenantID = sql.NullInt64{Int64: int64(*u.TenantID), Valid: true}
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password_hash, role, tenant_id, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?)",
		u.FirstName, u.LastName, strings.ToLower(strings.TrimSpace(u.Email)),
		u.PasswordHash, u.Role, tenantID, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetCredentialsByEmail fetches a user by normalized email including the
// password hash.  Used by login only.
func (r *UserRepo) GetCredentialsByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	var tenantID sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, email, password_hash, role, tenant_id, created_at, updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &tenantID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	if tenantID.Valid {
		v := uint64(tenantID.Int64)
		u.TenantID = &v
	}
	return u, nil
}

// GetByID fetches a user by id without the password hash.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	var tenantID sql.NullInt64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, first_name, last_name, email, role, tenant_id, created_at, updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &tenantID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	if tenantID.Valid {
		v := uint64(tenantID.Int64)
		u.TenantID = &v
	}
	return u, nil
}

// List returns all users without password hashes.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, first_name, last_name, email, role, tenant_id, created_at, updated_at FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		var tenantID sql.NullInt64
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &tenantID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if tenantID.Valid {
			v := uint64(tenantID.Int64)
			u.TenantID = &v
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// EmailExists reports whether another user already owns the given email.
// excludeID skips the record being updated; pass 0 when creating.
func (r *UserRepo) EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email=? AND id<>? LIMIT 1",
		email, excludeID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update applies the non-nil fields of upd and returns the number of
// affected rows.  A duplicate email maps to ErrEmailExists.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) (int64, error) {
	sets := []string{}
	args := []interface{}{}
	if upd.FirstName != nil {
		sets = append(sets, "first_name=?")
		args = append(args, *upd.FirstName)
	}
	if upd.LastName != nil {
		sets = append(sets, "last_name=?")
		args = append(args, *upd.LastName)
	}
	if upd.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.Role != nil {
		sets = append(sets, "role=?")
		args = append(args, *upd.Role)
	}
	if upd.TenantID != nil {
		sets = append(sets, "tenant_id=?")
		args = append(args, *upd.TenantID)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	sets = append(sets, "updated_at=?")
	args = append(args, time.Now().UTC(), id)

	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a user row and returns the number of affected rows.  The
// delete fails at the database when dependent rows (refresh tokens,
// tenant-scoped references) still exist.
func (r *UserRepo) Delete(ctx context.Context, id uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
