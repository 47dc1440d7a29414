package router // package router binds HTTP verbs, paths, middleware and handlers

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/tenant-auth/internal/handler"
	"github.com/iliyamo/tenant-auth/internal/httperr"
	"github.com/iliyamo/tenant-auth/internal/middleware"
	"github.com/iliyamo/tenant-auth/internal/model"
	"github.com/iliyamo/tenant-auth/internal/service"
	"github.com/iliyamo/tenant-auth/internal/validator"
)

// Deps carries everything the route table needs.
type Deps struct {
	Auth      *handler.AuthHandler
	Users     *handler.UserHandler
	Tenants   *handler.TenantHandler
	Tokens    *service.TokenService
	VerifyKey jwt.Keyfunc // access-token verification strategy
	KeyID     string      // kid served in the JWKS document
}

// Register configures the Echo instance (validator, error handler,
// request-scoped middleware) and mounts every route.
func Register(e *echo.Echo, d Deps) {
	e.Validator = validator.New()
	e.HTTPErrorHandler = httperr.Handler
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Public surface: welcome, liveness, OIDC-style key discovery.
	e.GET("/", handler.Welcome)
	e.GET("/healthz", handler.Health)
	e.GET("/.well-known/jwks.json", handler.JWKS(d.Tokens.PublicKey(), d.KeyID))

	authn := middleware.Authenticate(d.VerifyKey)

	// Auth endpoints.  Register and login are open; me needs an access
	// token; refresh needs a non-revoked refresh token; the logout pair
	// needs both tokens (signature-verified only, since deleting rows is
	// idempotent).
	a := e.Group("/auth")
	a.POST("/register", d.Auth.Register)
	a.POST("/login", d.Auth.Login)
	a.GET("/me", d.Auth.Me, authn)
	a.POST("/refresh", d.Auth.Refresh, middleware.ValidateRefreshToken(d.Tokens))
	a.POST("/logout", d.Auth.Logout, authn, middleware.ParseRefreshToken(d.Tokens))
	a.POST("/logoutAllDevices", d.Auth.LogoutAllDevices, authn, middleware.ParseRefreshToken(d.Tokens))

	// Tenant CRUD is admin-only.
	t := e.Group("/tenants", authn, middleware.CanAccess(model.RoleAdmin))
	t.POST("", d.Tenants.Create)
	t.GET("", d.Tenants.List)
	t.GET("/:id", d.Tenants.Get)
	t.PATCH("/:id", d.Tenants.Update)
	t.DELETE("/:id", d.Tenants.Delete)

	// User CRUD is admin-only.
	u := e.Group("/users", authn, middleware.CanAccess(model.RoleAdmin))
	u.POST("", d.Users.Create)
	u.GET("", d.Users.List)
	u.GET("/:id", d.Users.Get)
	u.PATCH("/:id", d.Users.Update)
	u.DELETE("/:id", d.Users.Delete)
}
