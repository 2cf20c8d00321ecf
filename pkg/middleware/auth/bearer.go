package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mosgim/platform/pkg/logging"
)

type Verifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

// Bearer guards routes with an "Authorization: Bearer <token>" header checked
// against the user service on every request.
type Bearer struct {
	Verifier Verifier
}

func NewBearer(v Verifier) *Bearer {
	return &Bearer{Verifier: v}
}

func (m *Bearer) RequireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("middleware", "bearer")

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return echo.NewHTTPError(http.StatusForbidden, "Invalid authorization code.")
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || scheme != "Bearer" {
			return echo.NewHTTPError(http.StatusForbidden, "Invalid authentication scheme.")
		}
		token = strings.TrimSpace(token)
		if token == "" {
			return echo.NewHTTPError(http.StatusForbidden, "Invalid authorization code.")
		}

		valid, err := m.Verifier.Verify(ctx, token)
		if err != nil {
			l.Error("verify_failed", "status", 503, "reason", "user service unavailable", "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "Auth service is unavailable.")
		}
		if !valid {
			l.Warn("verify_failed", "status", 403, "reason", "token rejected")
			return echo.NewHTTPError(http.StatusForbidden, "Invalid token or expired token.")
		}

		return next(c)
	}
}
