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

// UserHandler implements the admin-only user CRUD endpoints.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

type createUserReq struct {
	FirstName string  `json:"firstName" validate:"required"`
	LastName  string  `json:"lastName" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Role      string  `json:"role" validate:"required,oneof=customer manager admin"`
	TenantID  *uint64 `json:"tenantId"`
}

type updateUserReq struct {
	FirstName *string `json:"firstName" validate:"omitnil,min=1"`
	LastName  *string `json:"lastName" validate:"omitnil,min=1"`
	Email     *string `json:"email" validate:"omitnil,email"`
	Role      *string `json:"role" validate:"omitnil,oneof=customer manager admin"`
	TenantID  *uint64 `json:"tenantId"`
}

type dataMessageResp struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// Create inserts a user with an explicit role.  Unlike registration, the
// admin chooses the role and may attach the user to a tenant.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return httperr.New(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.FirstName, req.LastName, req.Email, req.Password, req.Role, req.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httperr.New(http.StatusBadRequest, "User with this email already exists!")
		}
		return httperr.New(http.StatusInternalServerError, "Failed to create user")
	}
	log.Printf("user %s is created (id=%d, role=%s)", u.FirstName, u.ID, u.Role)

	return c.JSON(http.StatusCreated, idMessageResp{
		ID:      u.ID,
		Message: fmt.Sprintf("A new user named %s is created with an ID %d; Their role is %s", u.FirstName, u.ID, u.Role),
	})
}

// List returns all users without password fields.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return httperr.New(http.StatusInternalServerError, "Failed to fetch users")
	}
	return c.JSON(http.StatusOK, dataMessageResp{
		Data:    users,
		Message: "Users list has been fetched successfully",
	})
}

// Get returns one user by id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "User")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.New(http.StatusNotFound, "User Not Found")
		}
		return httperr.New(http.StatusInternalServerError, "Failed to fetch user")
	}
	return c.JSON(http.StatusOK, dataMessageResp{
		Data:    u,
		Message: fmt.Sprintf("User %s with ID %d has been fetched successfully", u.FirstName, u.ID),
	})
}

// Update applies a partial update.  An empty body is rejected; a changed
// email must not belong to another user.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "User")
	if err != nil {
		return err
	}

	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return httperr.New(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.FirstName == nil && req.LastName == nil && req.Email == nil && req.Role == nil && req.TenantID == nil {
		return httperr.New(http.StatusBadRequest, "At least one field is required to update a user")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.FindByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.New(http.StatusNotFound, "User Not Found")
		}
		return httperr.New(http.StatusInternalServerError, "Failed to fetch user")
	}

	if req.Email != nil {
		taken, err := h.Users.CheckEmail(ctx, *req.Email, id)
		if err != nil {
			return httperr.New(http.StatusInternalServerError, "Failed to update user")
		}
		if taken {
			return httperr.New(http.StatusBadRequest, "Email already exists")
		}
	}

	affected, err := h.Users.Update(ctx, id, repository.UserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
		TenantID:  req.TenantID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httperr.New(http.StatusBadRequest, "Email already exists")
		}
		return httperr.New(http.StatusInternalServerError, "Failed to update user")
	}
	if affected == 0 {
		return httperr.Newf(http.StatusInternalServerError, "Failed to update user with ID %d.", id)
	}

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		return httperr.Newf(http.StatusInternalServerError, "User updated but could not be reloaded (id=%d).", id)
	}
	log.Printf("user %s has been updated (id=%d)", u.FirstName, u.ID)

	return c.JSON(http.StatusOK, dataMessageResp{
		Data:    u,
		Message: fmt.Sprintf("User %s with ID %d has been updated successfully", u.FirstName, u.ID),
	})
}

// Delete removes a user.  The delete is blocked at the database when
// dependent rows (refresh tokens, tenant-scoped references) still exist,
// which surfaces as a generic 500 rather than a domain error.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "User")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.New(http.StatusNotFound, "User Not Found")
		}
		return httperr.New(http.StatusInternalServerError, "Failed to fetch user")
	}

	affected, err := h.Users.Delete(ctx, id)
	if err != nil || affected == 0 {
		return httperr.Newf(http.StatusInternalServerError, "Failed to delete User with ID %d.", id)
	}
	log.Printf("user %s has been deleted (id=%d)", u.FirstName, u.ID)

	return c.JSON(http.StatusOK, messageResp{
		Message: fmt.Sprintf("User %s with ID %d has been deleted successfully", u.FirstName, u.ID),
	})
}
