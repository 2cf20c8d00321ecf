package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mosgim/platform/gateway/internal/middleware"
	"github.com/mosgim/platform/gateway/internal/proxy"
	"github.com/mosgim/platform/pkg/logging"
)

type Deps struct {
	Logger    *slog.Logger
	Forwarder proxy.Forwarder
	MosgimURL string
	// UploadURL is optional; /uploadfile answers 503 without it.
	UploadURL string
	Guard     echo.MiddlewareFunc
	Uploads   *UploadHTTP
	RateLimit int
	Ready     func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) error {
	if d.Forwarder == nil || d.MosgimURL == "" {
		return errors.New("httpserver: forwarder and mosgim url are required")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	for _, m := range middleware.Common(logger) {
		e.Use(m)
	}
	e.Use(middleware.RateLimit(d.RateLimit))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "Service is healthy"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Warn("readiness_failed", "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	proxy.Register(e, d.Forwarder, d.MosgimURL, proxy.MosgimRoutes(), d.Guard)

	if d.UploadURL != "" {
		proxy.Register(e, d.Forwarder, d.UploadURL, proxy.UploadRoutes(), d.Guard)
	} else {
		e.POST("/uploadfile", func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Service is unavailable.")
		})
	}

	uploads := d.Uploads
	if uploads == nil {
		uploads = &UploadHTTP{}
	}
	e.POST("/file", uploads.InspectZip)
	e.POST("/uploadfile-async", uploads.UploadAsync)
	return nil
}
