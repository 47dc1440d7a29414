package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness for load balancers and monitoring.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Welcome answers the root path with a plain greeting.
func Welcome(c echo.Context) error {
	return c.String(http.StatusOK, "Welcome to Auth service.")
}
