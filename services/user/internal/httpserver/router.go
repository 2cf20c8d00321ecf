package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mosgim/platform/pkg/logging"
	"github.com/mosgim/platform/services/user/internal/transport"
)

type Deps struct {
	Users    *UserHTTP
	Roles    *RoleHTTP
	Services *ServiceHTTP
	// Ready reports whether backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Service is healthy"})
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

	user := e.Group("/user")
	user.POST("/register", d.Users.Register)
	user.POST("/login", d.Users.Login)
	user.POST("/refresh-token", d.Users.RefreshToken)
	user.GET("/verify", d.Users.Verify)
	user.POST("/check-access", d.Users.CheckAccess)
	user.POST("/logout", d.Users.Logout)

	role := e.Group("/role")
	role.GET("/roles", d.Roles.List)
	role.POST("/roles", d.Roles.Create)
	role.DELETE("/roles/:id", d.Roles.Delete)
	role.GET("/user/:id/role", d.Roles.UserRole)
	role.POST("/user/:id/role", d.Roles.Assign)

	svc := e.Group("/service")
	svc.GET("/services", d.Services.List)
	svc.POST("/services", d.Services.Create)
	svc.DELETE("/services/:id", d.Services.Delete)
	svc.POST("/user/:id/services", d.Services.Assign)
	svc.GET("/user/:id/services", d.Services.UserServices)
}
