package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tenant-auth/internal/httperr"
)

// CanAccess returns a middleware that permits the request only when the
// authenticated principal's role is in the allow-list.  A missing or
// malformed role fails closed with 403.  It assumes Authenticate has
// already stored the role in the context.
func CanAccess(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || role == "" || !allowed[role] {
				return httperr.New(http.StatusForbidden,
					"You don't have enough permissions to perform this action")
			}
			return next(c)
		}
	}
}
