package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tenant-auth/internal/httperr"
)

// pathID parses the :id route parameter as a positive integer.  label is
// the entity name used in the validation message ("User", "Tenant").
func pathID(c echo.Context, label string) (uint64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &httperr.Error{
			Status: http.StatusBadRequest,
			Fields: []httperr.Field{{
				Type:     "field",
				Msg:      label + " id must be a positive integer",
				Path:     "id",
				Location: "params",
			}},
		}
	}
	return id, nil
}
