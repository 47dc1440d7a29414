package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tenant-auth/internal/httperr"
	"github.com/iliyamo/tenant-auth/internal/repository"
	"github.com/iliyamo/tenant-auth/internal/service"
)

// TenantHandler implements the admin-only tenant CRUD endpoints.
type TenantHandler struct {
	Tenants *service.TenantService
}

func NewTenantHandler(tenants *service.TenantService) *TenantHandler {
	return &TenantHandler{Tenants: tenants}
}

type tenantReq struct {
	Name    string `json:"name" validate:"required,min=5,max=100"`
	Address string `json:"address" validate:"required,min=5,max=255"`
}

// Create inserts a tenant.
func (h *TenantHandler) Create(c echo.Context) error {
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return httperr.New(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tenants.Create(ctx, req.Name, req.Address)
	if err != nil {
		return err
	}
	log.Printf("tenant %s is created (id=%d)", t.Name, t.ID)

	return c.JSON(http.StatusCreated, idMessageResp{
		ID:      t.ID,
		Message: fmt.Sprintf("A new tenant named %s is created with an ID %d", t.Name, t.ID),
	})
}

// List returns all tenants.
func (h *TenantHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tenants, err := h.Tenants.ListAll(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tenants)
}

// Get returns one tenant by id.
func (h *TenantHandler) Get(c echo.Context) error {
	id, err := pathID(c, "Tenant")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tenants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.New(http.StatusNotFound, "Tenant Not Found")
		}
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// Update replaces a tenant's name and address.
func (h *TenantHandler) Update(c echo.Context) error {
	id, err := pathID(c, "Tenant")
	if err != nil {
		return err
	}

	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return httperr.New(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Tenants.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.New(http.StatusNotFound, "Tenant Not Found")
		}
		return err
	}

	affected, err := h.Tenants.Update(ctx, id, req.Name, req.Address)
	if err != nil {
		return err
	}
	if affected == 0 {
		return httperr.Newf(http.StatusInternalServerError, "Failed to update tenant with ID %d.", id)
	}

	t, err := h.Tenants.FindByID(ctx, id)
	if err != nil {
		return httperr.Newf(http.StatusInternalServerError, "Tenant updated but could not be reloaded (id=%d).", id)
	}
	log.Printf("tenant %s has been updated (id=%d)", t.Name, t.ID)

	return c.JSON(http.StatusOK, dataMessageResp{
		Data:    t,
		Message: fmt.Sprintf("Tenant %s with ID %d has been updated successfully", t.Name, t.ID),
	})
}

// Delete removes a tenant.  The users.tenant_id foreign key is not
// pre-checked: deleting a tenant that still has users fails in the
// repository and surfaces as the service's wrapped 500.
func (h *TenantHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "Tenant")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tenants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.New(http.StatusNotFound, "Tenant Not Found")
		}
		return err
	}

	affected, err := h.Tenants.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return httperr.Newf(http.StatusInternalServerError, "Failed to delete tenant with ID %d.", id)
	}
	log.Printf("tenant %s has been deleted (id=%d)", t.Name, t.ID)

	return c.JSON(http.StatusOK, messageResp{
		Message: fmt.Sprintf("Tenant %s with ID %d has been deleted successfully", t.Name, t.ID),
	})
}
