package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tenant-auth/internal/model"
)

// TenantRepo persists tenant records.
type TenantRepo struct{ DB *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{DB: db} }

// Create inserts a tenant and returns its generated id.
func (r *TenantRepo) Create(ctx context.Context, name, address string) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tenants (name, address, created_at, updated_at) VALUES (?,?,?,?)",
		name, address, now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a tenant by id.
func (r *TenantRepo) GetByID(ctx context.Context, id uint64) (model.Tenant, error) {
	var t model.Tenant
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, address, created_at, updated_at FROM tenants WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Tenant{}, ErrNotFound
		}
		return model.Tenant{}, err
	}
	return t, nil
}

// List returns all tenants.
func (r *TenantRepo) List(ctx context.Context) ([]model.Tenant, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, name, address, created_at, updated_at FROM tenants ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := []model.Tenant{}
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Address, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// Update replaces name and address and returns the number of affected rows.
func (r *TenantRepo) Update(ctx context.Context, id uint64, name, address string) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE tenants SET name=?, address=?, updated_at=? WHERE id=?",
		name, address, time.Now().UTC(), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a tenant row and returns the number of affected rows.
// The foreign key on users.tenant_id blocks the delete while users still
// reference the tenant; that driver error propagates unchanged.
func (r *TenantRepo) Delete(ctx context.Context, id uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tenants WHERE id=?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
