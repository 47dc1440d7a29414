package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tenant-auth/internal/httperr"
	"github.com/iliyamo/tenant-auth/internal/middleware"
	"github.com/iliyamo/tenant-auth/internal/model"
	"github.com/iliyamo/tenant-auth/internal/repository"
	"github.com/iliyamo/tenant-auth/internal/service"
)

// invalidCredentials is returned for an unknown email and a wrong password
// alike, so responses cannot be used to enumerate accounts.
const invalidCredentials = "Invalid Credentials! Try Again please."

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Users        *service.UserService
	Tokens       *service.TokenService
	Creds        *service.CredentialService
	CookieDomain string
}

func NewAuthHandler(users *service.UserService, tokens *service.TokenService, creds *service.CredentialService, cookieDomain string) *AuthHandler {
	return &AuthHandler{Users: users, Tokens: tokens, Creds: creds, CookieDomain: cookieDomain}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type idMessageResp struct {
	ID      uint64 `json:"id"`
	Message string `json:"message"`
}

type messageResp struct {
	Message string `json:"message"`
}

// Register creates a user with the default customer role and signs the
// caller in immediately.  A client-supplied role field is ignored: the DTO
// simply has no such field, so privilege escalation attempts fall away at
// bind time.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return httperr.New(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, req.FirstName, req.LastName, req.Email, req.Password, model.RoleCustomer, nil)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return httperr.New(http.StatusBadRequest, "User with this email already exists!")
		}
		return httperr.New(http.StatusInternalServerError, "Failed to register user")
	}
	log.Printf("user %s has been registered successfully (id=%d)", u.FirstName, u.ID)

	if err := h.issueTokens(ctx, c, u.ID, u.Role); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, idMessageResp{
		ID:      u.ID,
		Message: "User " + u.FirstName + " with id " + strconv.FormatUint(u.ID, 10) + " has been registered successfully.",
	})
}

// Login verifies credentials and issues a fresh token pair.  Each
// successful login adds exactly one refresh-token row; other sessions stay
// untouched.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return httperr.New(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetCredentialsByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.New(http.StatusBadRequest, invalidCredentials)
		}
		return httperr.New(http.StatusInternalServerError, "Failed to log in")
	}
	if !h.Creds.CheckPassword(req.Password, u.PasswordHash) {
		return httperr.New(http.StatusBadRequest, invalidCredentials)
	}
	log.Printf("user %d has been logged in", u.ID)

	if err := h.issueTokens(ctx, c, u.ID, u.Role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, idMessageResp{
		ID:      u.ID,
		Message: "User has been logged in successfully.",
	})
}

// Me returns the authenticated user without the password field.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, _ := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.New(http.StatusNotFound, "User Not Found")
		}
		return httperr.New(http.StatusInternalServerError, "Failed to load user")
	}
	return c.JSON(http.StatusOK, u)
}

// Refresh rotates the refresh token: a new row is persisted and the row
// referenced by the incoming token's jti is deleted, so replaying the
// consumed token fails the middleware's existence check with 401.  The
// net effect is one valid row per completed refresh cycle.
func (h *AuthHandler) Refresh(c echo.Context) error {
	claims, ok := c.Get(middleware.CtxRefreshClaims).(*service.RefreshClaims)
	if !ok {
		return httperr.New(http.StatusUnauthorized, "invalid refresh token")
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return httperr.New(http.StatusUnauthorized, "invalid refresh token")
	}
	oldID, err := strconv.ParseUint(claims.ID, 10, 64)
	if err != nil {
		return httperr.New(http.StatusUnauthorized, "invalid refresh token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httperr.New(http.StatusUnauthorized, "invalid refresh token")
		}
		return httperr.New(http.StatusInternalServerError, "Failed to refresh tokens")
	}

	if err := h.issueTokens(ctx, c, u.ID, u.Role); err != nil {
		return err
	}
	if err := h.Tokens.DeleteRefreshToken(ctx, oldID); err != nil {
		return httperr.New(http.StatusInternalServerError, "Failed to refresh tokens")
	}
	return c.JSON(http.StatusOK, messageResp{Message: "Tokens have been refreshed successfully."})
}

// Logout deletes the refresh-token row referenced by the presented token
// and clears both cookies.  Deleting by id is idempotent, so logging out
// with an already-rotated token is a no-op rather than an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, ok := c.Get(middleware.CtxRefreshClaims).(*service.RefreshClaims)
	if !ok {
		return httperr.New(http.StatusUnauthorized, "invalid refresh token")
	}
	id, err := strconv.ParseUint(claims.ID, 10, 64)
	if err != nil {
		return httperr.New(http.StatusUnauthorized, "invalid refresh token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.DeleteRefreshToken(ctx, id); err != nil {
		return httperr.New(http.StatusInternalServerError, "Failed to log out")
	}
	log.Printf("user %s has been logged out", claims.Subject)

	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, messageResp{Message: "User has been logged out successfully."})
}

// LogoutAllDevices deletes every refresh-token row belonging to the subject
// user; rows belonging to other users are untouched.
func (h *AuthHandler) LogoutAllDevices(c echo.Context) error {
	claims, ok := c.Get(middleware.CtxRefreshClaims).(*service.RefreshClaims)
	if !ok {
		return httperr.New(http.StatusUnauthorized, "invalid refresh token")
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return httperr.New(http.StatusUnauthorized, "invalid refresh token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.DeleteAllRefreshTokens(ctx, userID); err != nil {
		return httperr.New(http.StatusInternalServerError, "Failed to log out")
	}
	log.Printf("user %d has been logged out from all devices", userID)

	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, messageResp{Message: "User has been logged out from all devices successfully."})
}

// issueTokens signs an access token, persists a refresh-token row, signs
// the refresh token referencing that row id, and sets both cookies.
func (h *AuthHandler) issueTokens(ctx context.Context, c echo.Context, userID uint64, role string) error {
	access, err := h.Tokens.GenerateAccessToken(userID, role)
	if err != nil {
		return httperr.New(http.StatusInternalServerError, "Failed to issue access token")
	}
	rowID, err := h.Tokens.PersistRefreshToken(ctx, userID)
	if err != nil {
		return httperr.New(http.StatusInternalServerError, "Failed to persist refresh token")
	}
	refresh, err := h.Tokens.GenerateRefreshToken(userID, role, rowID)
	if err != nil {
		return httperr.New(http.StatusInternalServerError, "Failed to issue refresh token")
	}

	h.setAuthCookie(c, middleware.AccessTokenCookie, access, int(h.Tokens.AccessTTL().Seconds()))
	h.setAuthCookie(c, middleware.RefreshTokenCookie, refresh, int(h.Tokens.RefreshTTL().Seconds()))
	return nil
}

func (h *AuthHandler) setAuthCookie(c echo.Context, name, value string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	h.setAuthCookie(c, middleware.AccessTokenCookie, "", -1)
	h.setAuthCookie(c, middleware.RefreshTokenCookie, "", -1)
}
