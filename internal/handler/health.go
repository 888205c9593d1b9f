package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the load balancer check. It does not call the backend.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
