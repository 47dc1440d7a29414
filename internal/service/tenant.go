package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/iliyamo/tenant-auth/internal/httperr"
	"github.com/iliyamo/tenant-auth/internal/model"
	"github.com/iliyamo/tenant-auth/internal/repository"
)

// TenantService orchestrates tenant CRUD.  Persistence failures are wrapped
// into typed 500 errors here so every caller surfaces the same messages;
// "not found" stays a sentinel for handlers to turn into 404.
type TenantService struct {
	tenants *repository.TenantRepo
}

func NewTenantService(tenants *repository.TenantRepo) *TenantService {
	return &TenantService{tenants: tenants}
}

// Create inserts a tenant and returns it with the generated id.
func (s *TenantService) Create(ctx context.Context, name, address string) (model.Tenant, error) {
	id, err := s.tenants.Create(ctx, name, address)
	if err != nil {
		return model.Tenant{}, httperr.Newf(http.StatusInternalServerError,
			"Something went wrong while saving the tenant data in DB; Reason => %v", err)
	}
	return model.Tenant{ID: id, Name: name, Address: address}, nil
}

// ListAll returns every tenant.
func (s *TenantService) ListAll(ctx context.Context) ([]model.Tenant, error) {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return nil, httperr.Newf(http.StatusInternalServerError,
			"Something went wrong while retrieving the list of tenants from DB; Reason => %v", err)
	}
	return tenants, nil
}

// FindByID returns one tenant; repository.ErrNotFound passes through for
// the handler's 404.
func (s *TenantService) FindByID(ctx context.Context, id uint64) (model.Tenant, error) {
	t, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Tenant{}, err
		}
		return model.Tenant{}, httperr.Newf(http.StatusInternalServerError,
			"Something went wrong while retrieving tenant by ID from DB; Reason => %v", err)
	}
	return t, nil
}

// Update replaces name and address, returning the number of affected rows.
func (s *TenantService) Update(ctx context.Context, id uint64, name, address string) (int64, error) {
	affected, err := s.tenants.Update(ctx, id, name, address)
	if err != nil {
		return 0, httperr.Newf(http.StatusInternalServerError,
			"Something went wrong while updating the tenant data; Reason => %v", err)
	}
	return affected, nil
}

// Delete removes a tenant.  A foreign-key breach (users still referencing
// the tenant) is not pre-checked; it fails here and surfaces as the wrapped
// 500.
func (s *TenantService) Delete(ctx context.Context, id uint64) (int64, error) {
	affected, err := s.tenants.Delete(ctx, id)
	if err != nil {
		return 0, httperr.Newf(http.StatusInternalServerError,
			"Something went wrong while deleting tenant by ID from DB; Reason => %v", err)
	}
	return affected, nil
}
