package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mosgim/platform/services/user/internal/service"
)

type errMapping struct {
	err  error
	code int
	msg  string
}

const msgInvalidRequest = "Invalid request"

var errorTable = []errMapping{
	{service.ErrValidation, http.StatusBadRequest, msgInvalidRequest},
	{service.ErrUserExists, http.StatusBadRequest, "User with the same username or email already exists"},
	{service.ErrRoleExists, http.StatusBadRequest, "Role with the same name already exists"},
	{service.ErrRoleInUse, http.StatusBadRequest, "Role is assigned to users"},
	{service.ErrServiceExists, http.StatusBadRequest, "Service with the same name already exists"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{service.ErrNotAdmin, http.StatusUnauthorized, "Not an administrator token"},
	{service.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{service.ErrRoleNotFound, http.StatusNotFound, "Role not found"},
	{service.ErrServiceNotFound, http.StatusNotFound, "Service not found"},
}

// toHTTPError maps service errors to responses. Unknown errors are logged
// and hidden behind a generic 500.
func toHTTPError(l *slog.Logger, op string, err error) error {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			l.Warn(op+"_failed", "status", m.code, "reason", m.msg, "error", err)
			return echo.NewHTTPError(m.code, m.msg)
		}
	}
	l.Error(op+"_failed", "status", http.StatusInternalServerError, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

// bindAndValidate binds the request body and the query string into req.
func bindAndValidate(c echo.Context, l *slog.Logger, op string, req any) error {
	if err := c.Bind(req); err != nil {
		l.Warn(op+"_failed", "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequest)
	}
	if err := c.Validate(req); err != nil {
		l.Warn(op+"_failed", "status", http.StatusBadRequest, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequest)
	}
	return nil
}

func bindQuery(c echo.Context, l *slog.Logger, op string, req any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, req); err != nil {
		l.Warn(op+"_failed", "status", http.StatusBadRequest, "reason", "invalid query", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequest)
	}
	if err := c.Validate(req); err != nil {
		l.Warn(op+"_failed", "status", http.StatusBadRequest, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequest)
	}
	return nil
}

func pathID(c echo.Context, l *slog.Logger, op, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		l.Warn(op+"_failed", "status", http.StatusBadRequest, "reason", "invalid id", "param", c.Param(name))
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}
