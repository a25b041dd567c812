package config

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const HeaderRequestId = "x-request-id"
const RequestIdLoggingKey = "request_id"

// SkipLogging skips request logging for the liveness and metrics endpoints.
func SkipLogging(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/ping" || p == "/ping/" || strings.HasPrefix(p, Get().Metrics.Path)
}
