package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mosgim/platform/pkg/logging"
	"github.com/mosgim/platform/services/user/internal/service"
	"github.com/mosgim/platform/services/user/internal/transport"
)

type UserHTTP struct {
	Svc *service.AuthService
}

func (h *UserHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_register")

	var req transport.RegisterRequest
	if err := bindAndValidate(c, l, "register", &req); err != nil {
		return err
	}

	if _, err := h.Svc.Register(ctx, req.Username, req.Password, req.Email); err != nil {
		return toHTTPError(l, "register", err)
	}

	l.Info("register_successful", "username", req.Username)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User registered"})
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, l, "login", &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return toHTTPError(l, "login", err)
	}

	l.Info("login_successful", "user_id", res.UserID)
	return c.JSON(http.StatusOK, transport.TokenResponse{Message: "User logged in", Token: res.Token})
}

func (h *UserHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_refresh_token")

	var req transport.LoginRequest
	if err := bindAndValidate(c, l, "refresh", &req); err != nil {
		return err
	}

	res, err := h.Svc.RefreshToken(ctx, req.Username, req.Password)
	if err != nil {
		return toHTTPError(l, "refresh", err)
	}

	return c.JSON(http.StatusOK, transport.TokenResponse{Message: "Token refreshed", Token: res.Token})
}

func (h *UserHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_verify")

	if _, err := h.Svc.VerifyToken(ctx, c.QueryParam("token")); err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			l.Warn("verify_failed", "status", 401, "reason", "invalid user token")
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user token")
		}
		return toHTTPError(l, "verify", err)
	}

	return c.JSON(http.StatusOK, transport.VerifyResponse{Message: "User token verified", IsValid: true})
}

func (h *UserHTTP) CheckAccess(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_check_access")

	var q transport.CheckAccessQuery
	if err := bindQuery(c, l, "check_access", &q); err != nil {
		return err
	}

	has, err := h.Svc.CheckAccess(ctx, q.ServiceName, q.Token)
	if err != nil {
		// an orphaned token is an authentication failure here, not a lookup miss
		if errors.Is(err, service.ErrUserNotFound) {
			l.Warn("check_access_failed", "status", 401, "reason", "user not found")
			return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
		}
		return toHTTPError(l, "check_access", err)
	}

	msg := "Access denied"
	if has {
		msg = "Access granted"
	}
	return c.JSON(http.StatusOK, transport.AccessResponse{Message: msg, HasAccess: has})
}

func (h *UserHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_logout")

	var q transport.TokenQuery
	if err := bindQuery(c, l, "logout", &q); err != nil {
		return err
	}

	if err := h.Svc.Logout(ctx, q.Token); err != nil {
		return toHTTPError(l, "logout", err)
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User logged out"})
}
