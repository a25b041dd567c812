package router

import (
	"context"
	"time"

	"github.com/content-services/lecho/v3"
	"github.com/file-drop/file-drop-backend/pkg/config"
	"github.com/file-drop/file-drop-backend/pkg/handler"
	"github.com/file-drop/file-drop-backend/pkg/instrumentation"
	"github.com/file-drop/file-drop-backend/pkg/middleware"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConfigureEcho builds the echo engine with the global middleware stack and
// the liveness route. Resource routes are registered separately via
// handler.RegisterRoutes once the upload pipeline is wired.
func ConfigureEcho(ctx context.Context) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Add global middlewares
	echoLogger := lecho.From(log.Logger,
		lecho.WithTimestamp(),
		lecho.WithCaller(),
	)

	e.Use(middleware.AddRequestId)
	e.Use(lecho.Middleware(lecho.Config{
		Logger:              echoLogger,
		RequestIDHeader:     config.HeaderRequestId,
		RequestIDKey:        config.RequestIdLoggingKey,
		Skipper:             config.SkipLogging,
		RequestLatencyLevel: zerolog.WarnLevel,
		RequestLatencyLimit: 500 * time.Millisecond,
	}))
	e.Use(middleware.ExtractStatus) // Must be after lecho
	e.Use(middleware.EnforceJSONContentType)
	e.Use(middleware.LogServerErrorRequest)

	handler.RegisterPing(e)

	// Set error handler
	e.HTTPErrorHandler = config.CustomHTTPErrorHandler
	return e
}

// ConfigureEchoWithMetrics additionally records request metrics.
func ConfigureEchoWithMetrics(ctx context.Context, metrics *instrumentation.Metrics) *echo.Echo {
	e := ConfigureEcho(ctx)
	e.Use(instrumentation.MetricsMiddlewareWithConfig(&instrumentation.MetricsConfig{
		Metrics: metrics,
		Skipper: config.SkipLogging,
	}))
	return e
}
