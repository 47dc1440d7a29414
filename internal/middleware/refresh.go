package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tenant-auth/internal/httperr"
	"github.com/iliyamo/tenant-auth/internal/service"
)

// ValidateRefreshToken returns a middleware that accepts a request only
// when the refreshToken cookie holds a signed, unexpired refresh JWT whose
// backing row still exists for the subject user.  A rotated or logged-out
// token has no row, so it is rejected here even though its signature is
// still valid.  Database failures also read as revoked.
func ValidateRefreshToken(tokens *service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := refreshClaimsFrom(c, tokens)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			if !tokens.IsRefreshTokenActive(ctx, claims) {
				return httperr.New(http.StatusUnauthorized, "refresh token has been revoked")
			}

			c.Set(CtxRefreshClaims, claims)
			return next(c)
		}
	}
}

// ParseRefreshToken verifies the refresh JWT's signature, issuer and expiry
// without the database check.  Logout uses it: deleting the referenced row
// is idempotent, so an already-rotated token logging out is a harmless
// no-op.
func ParseRefreshToken(tokens *service.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := refreshClaimsFrom(c, tokens)
			if err != nil {
				return err
			}
			c.Set(CtxRefreshClaims, claims)
			return next(c)
		}
	}
}

// refreshClaimsFrom reads and verifies the refresh cookie.
func refreshClaimsFrom(c echo.Context, tokens *service.TokenService) (*service.RefreshClaims, error) {
	ck, err := c.Cookie(RefreshTokenCookie)
	if err != nil || ck.Value == "" {
		return nil, httperr.New(http.StatusUnauthorized, "missing refresh token")
	}
	claims, err := tokens.VerifyRefreshToken(ck.Value)
	if err != nil {
		return nil, httperr.New(http.StatusUnauthorized, "invalid refresh token")
	}
	return claims, nil
}
