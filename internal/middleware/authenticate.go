package middleware // reusable request guards for the HTTP layer

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tenant-auth/internal/httperr"
	"github.com/iliyamo/tenant-auth/internal/service"
)

// Cookie names shared between the middleware (reads) and the auth handler
// (writes).
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Context keys under which the authenticated principal is stored.
const (
	CtxUserID        = "user_id"
	CtxRole          = "role"
	CtxRefreshClaims = "refresh_claims"
)

// Authenticate returns a middleware that validates an RS256 access token
// and stores the subject and role in the request context.  The token is
// taken from the Authorization header when present, falling back to the
// accessToken cookie.  keyfn is the verification strategy chosen at
// startup (static public key or cached JWKS lookup).
func Authenticate(keyfn jwt.Keyfunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := accessTokenFrom(c)
			if raw == "" {
				return httperr.New(http.StatusUnauthorized, "missing access token")
			}

			tok, err := jwt.ParseWithClaims(raw, &service.AccessClaims{}, keyfn,
				jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
				jwt.WithIssuer(service.Issuer),
			)
			if err != nil || !tok.Valid {
				return httperr.New(http.StatusUnauthorized, "invalid access token")
			}
			claims, ok := tok.Claims.(*service.AccessClaims)
			if !ok {
				return httperr.New(http.StatusUnauthorized, "invalid access token")
			}
			userID, err := strconv.ParseUint(claims.Subject, 10, 64)
			if err != nil {
				return httperr.New(http.StatusUnauthorized, "invalid access token")
			}

			c.Set(CtxUserID, userID)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}

// accessTokenFrom extracts the raw access token, preferring the
// Authorization header over the cookie.
func accessTokenFrom(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if ck, err := c.Cookie(AccessTokenCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	return ""
}
